package protocol

import "fmt"

// ErrorCode is the vendor error code carried in failure responses.
// The catalog mirrors the EFC-01 firmware; only a handful are ever acted
// upon by this client (notably ErrInvalidLogPass), the rest exist for
// diagnostics.
type ErrorCode int

const (
	ErrCodeSuccess            ErrorCode = 0xFFFF
	ErrConnectionInvalid      ErrorCode = 0
	ErrUnknown                ErrorCode = 1
	ErrUnsupportedOperation   ErrorCode = 2
	ErrNoValidList            ErrorCode = 3
	ErrSignatureError         ErrorCode = 4
	ErrServerCloseConnection  ErrorCode = 400
	ErrSessionInvalid         ErrorCode = -1
	ErrInvalidLogPass         ErrorCode = -2
	ErrUserAlreadyExists      ErrorCode = -3
	ErrMaxCount               ErrorCode = -4
	ErrNoSuchUser             ErrorCode = -5
	ErrInvalidUser            ErrorCode = -6
	ErrInvalidPermissions     ErrorCode = -7
	ErrInvalidOldPassword     ErrorCode = -8
	ErrNoSuchDevice           ErrorCode = -9
	ErrInvalidData            ErrorCode = -10
	ErrNoSuchChannel          ErrorCode = -11
	ErrInvalidConfig          ErrorCode = -12
	ErrDeviceNotResponding    ErrorCode = -13
	ErrNoSuchData             ErrorCode = -14
	ErrSceneTurnedOff         ErrorCode = -15
	ErrDeviceAlreadyAdded     ErrorCode = -16
	ErrConfigExists           ErrorCode = -17
	ErrUpdateInProgress       ErrorCode = -18
	ErrDiscoveryInProgress    ErrorCode = -19
	ErrUploadInProgress       ErrorCode = -20
	ErrUploadInitFail         ErrorCode = -21
	ErrCanNotRestoreUser      ErrorCode = -22
	ErrPasswordExist          ErrorCode = -23
	ErrNoServerConnection     ErrorCode = -24
	ErrWebDownloadFail        ErrorCode = -25
	ErrWebServerFileNotExist  ErrorCode = -26
	ErrSDCardBusy             ErrorCode = -27
	ErrFileNotFound           ErrorCode = -28
	ErrFileTooBig             ErrorCode = -29
	ErrFileCorrupted          ErrorCode = -30
	ErrFileReadMoreData       ErrorCode = -31
	ErrFileInvalidReadData    ErrorCode = -32
	ErrFileEndOfFile          ErrorCode = -33
	ErrCloudIsDisabled        ErrorCode = -34
	ErrDeviceConfigMissing    ErrorCode = -35
	ErrDeviceCalibration      ErrorCode = -36
	ErrDevicePositionInvalid  ErrorCode = -37
	ErrDeviceRemoteExists     ErrorCode = -38
	ErrBatteryDeviceStandby   ErrorCode = -40
	ErrActivateInvalidParams  ErrorCode = -50
	ErrCloudTooMuchRequest    ErrorCode = -60
	ErrCloudErrorFromServer   ErrorCode = -61
	ErrCloudObjectUndefined   ErrorCode = -62
	ErrUndefinedPhoneID       ErrorCode = -63
	ErrEmailAlreadySent       ErrorCode = -66
	ErrAccountAlreadyExists   ErrorCode = -67
	ErrPasswordResetExceeded  ErrorCode = -68
	ErrEmailNotExists         ErrorCode = -69
	ErrCloudTimeout           ErrorCode = -70
	ErrCloudLocalOnly         ErrorCode = -71
	ErrNullPointerException   ErrorCode = -100
	ErrOutOfMemory            ErrorCode = -101
	ErrOutOfMemorySerialize   ErrorCode = -102
	ErrUsersLimit             ErrorCode = -200
)

var errorCodeNames = map[ErrorCode]string{
	ErrCodeSuccess:           "SUCCESS",
	ErrConnectionInvalid:     "CONNECTION_INVALID",
	ErrUnknown:               "UNKNOWN",
	ErrUnsupportedOperation:  "UNSUPPORTED_OPERATION",
	ErrNoValidList:           "NO_VALID_LIST",
	ErrSignatureError:        "SIGNATURE_ERROR",
	ErrServerCloseConnection: "SERVER_CLOSE_CONNECTION",
	ErrSessionInvalid:        "SESSION_INVALID",
	ErrInvalidLogPass:        "INVALID_LOG_PASS",
	ErrUserAlreadyExists:     "USER_ALREADY_EXISTS",
	ErrMaxCount:              "MAX_COUNT",
	ErrNoSuchUser:            "NO_SUCH_USER",
	ErrInvalidUser:           "INVALID_USER",
	ErrInvalidPermissions:    "INVALID_PERMISSIONS",
	ErrInvalidOldPassword:    "INVALID_OLD_PASSWORD",
	ErrNoSuchDevice:          "NO_SUCH_DEVICE",
	ErrInvalidData:           "INVALID_DATA",
	ErrNoSuchChannel:         "NO_SUCH_CHANNEL",
	ErrInvalidConfig:         "INVALID_CONFIG",
	ErrDeviceNotResponding:   "DEVICE_NOT_RESPONDING",
	ErrNoSuchData:            "NO_SUCH_DATA",
	ErrSceneTurnedOff:        "SCENE_TURNED_OFF",
	ErrDeviceAlreadyAdded:    "DEVICE_ALREADY_ADDED",
	ErrConfigExists:          "CONFIG_EXISTS",
	ErrUpdateInProgress:      "UPDATE_IN_PROGRESS",
	ErrDiscoveryInProgress:   "DISCOVERY_IN_PROGRESS",
	ErrUploadInProgress:      "UPLOAD_IN_PROGRESS",
	ErrUploadInitFail:        "UPLOAD_INIT_FAIL",
	ErrCanNotRestoreUser:     "CAN_NOT_RESTORE_USER",
	ErrPasswordExist:         "PASSWORD_EXIST",
	ErrNoServerConnection:    "NO_SERVER_CONNECTION",
	ErrWebDownloadFail:       "WEB_DOWNLOAD_PROGRESS_FAIL",
	ErrWebServerFileNotExist: "WEB_SERVER_FILE_NOT_EXIST",
	ErrSDCardBusy:            "SD_CARD_BUSY",
	ErrFileNotFound:          "FILE_NO_FOUND",
	ErrFileTooBig:            "FILE_IS_TO_BIG",
	ErrFileCorrupted:         "FILE_IS_CORRUPTED",
	ErrFileReadMoreData:      "FILE_READ_MORE_DATA",
	ErrFileInvalidReadData:   "FILE_INVALID_READ_DATA",
	ErrFileEndOfFile:         "FILE_END_OF_FILE",
	ErrCloudIsDisabled:       "CLOUD_IS_DISABLED",
	ErrDeviceConfigMissing:   "DEVICE_CONFIG_DO_NOT_EXISTS",
	ErrDeviceCalibration:     "DEVICE_CALIBRATION_INVALID",
	ErrDevicePositionInvalid: "DEVICE_POSITION_INVALID",
	ErrDeviceRemoteExists:    "DEVICE_REMOTE_EXISTS",
	ErrBatteryDeviceStandby:  "BATTERY_DEVICE_STANDBY",
	ErrActivateInvalidParams: "ACTIVATE_INVALID_PARAMETERS",
	ErrCloudTooMuchRequest:   "CLOUD_TOO_MUCH_REQUEST",
	ErrCloudErrorFromServer:  "RESULT_EXCEPTION_CLOUD_ERROR_FROM_SERVER",
	ErrCloudObjectUndefined:  "RESULT_EXCEPTION_CLOUD_OBJECT_UNDEFINED",
	ErrUndefinedPhoneID:      "UNDEFINED_PHONE_ID",
	ErrEmailAlreadySent:      "EMAIL_ALREADY_SEND",
	ErrAccountAlreadyExists:  "ACCOUNT_ALREADY_EXISTS",
	ErrPasswordResetExceeded: "EXCEEDED_LIMIT_PASSWORD_RESET",
	ErrEmailNotExists:        "EMAIL_NOT_EXISTS",
	ErrCloudTimeout:          "TIMEOUT_CONNECTION_CONTROLLER_CLOUD",
	ErrCloudLocalOnly:        "CLOUD_ERROR_LOCAL_ONLY",
	ErrNullPointerException:  "RESULT_EXCEPTION_NULL_POINTER",
	ErrOutOfMemory:           "OUT_OF_MEMORY",
	ErrOutOfMemorySerialize:  "OUT_OF_MEMORY_SERIALIZE_JSON",
	ErrUsersLimit:            "USERS_LIMIT",
}

// String returns the firmware name of the error code.
func (e ErrorCode) String() string {
	if name, ok := errorCodeNames[e]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(e))
}
