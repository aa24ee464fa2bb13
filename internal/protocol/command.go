package protocol

import "fmt"

// Command identifies an EFC-01 controller command. The numeric values are
// fixed by the controller firmware and must match exactly on the wire.
type Command int

const (
	CmdNoop                       Command = 0
	CmdLogin                      Command = 1
	CmdControlDevice              Command = 20
	CmdFetchReceiverConfig        Command = 25
	CmdFetchReceiverConfigDetails Command = 27
	CmdFetchReceivers             Command = 37
	CmdFetchSensors               Command = 38
	CmdFetchTransmitters          Command = 39
	CmdActivateScene              Command = 44
	CmdFetchNetworkSettings       Command = 102
	CmdRestart                    Command = 150
	CmdCheckVersion               Command = 151
	CmdGetConfigDetails           Command = 154
	CmdFetchExtaFree              Command = 203
	CmdDownloadBackup             Command = 500
)

var commandNames = map[Command]string{
	CmdNoop:                       "NOOP",
	CmdLogin:                      "LOGIN",
	CmdControlDevice:              "CONTROL_DEVICE",
	CmdFetchReceiverConfig:        "FETCH_RECEIVER_CONFIG",
	CmdFetchReceiverConfigDetails: "FETCH_RECEIVER_CONFIG_DETAILS",
	CmdFetchReceivers:             "FETCH_RECEIVERS",
	CmdFetchSensors:               "FETCH_SENSORS",
	CmdFetchTransmitters:          "FETCH_TRANSMITTERS",
	CmdActivateScene:              "ACTIVATE_SCENE",
	CmdFetchNetworkSettings:       "FETCH_NETWORK_SETTINGS",
	CmdRestart:                    "RESTART",
	CmdCheckVersion:               "CHECK_VERSION",
	CmdGetConfigDetails:           "GET_EFC_CONFIG_DETAILS",
	CmdFetchExtaFree:              "FETCH_EXTA_FREE",
	CmdDownloadBackup:             "DOWNLOAD_BACKUP",
}

// Valid reports whether c is a command known to this client.
func (c Command) Valid() bool {
	_, ok := commandNames[c]
	return ok
}

// String returns the firmware name of the command.
func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Command(%d)", int(c))
}
