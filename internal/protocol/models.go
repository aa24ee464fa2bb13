package protocol

import "fmt"

// Controller identity constants.
const (
	Manufacturer    = "ZAMEL"
	SeriesExtaLife  = "Exta Life"
	SeriesExtaFree  = "Exta Free"
	ControllerModel = "EFC-01"
)

// ExtaFreeTypeOffset moves Exta Free device type codes into their own
// numeric namespace. The two device catalogs share low type-code ranges on
// the wire; the vendor app disambiguates by adding this offset, and so do we.
const ExtaFreeTypeOffset = 300

// DeviceModel is the numeric device type reported by the controller.
// Codes >= ExtaFreeTypeOffset are Exta Free (legacy radio protocol) devices
// after remapping.
type DeviceModel int

const (
	ModelRNK22           DeviceModel = 1
	ModelRNK22TempSensor DeviceModel = 2
	ModelRNK24           DeviceModel = 3
	ModelRNK24TempSensor DeviceModel = 4
	ModelP4572           DeviceModel = 5
	ModelP4574           DeviceModel = 6
	ModelP4578           DeviceModel = 7
	ModelP45736          DeviceModel = 8
	ModelLedixP260       DeviceModel = 9
	ModelROP21           DeviceModel = 10
	ModelROP22           DeviceModel = 11
	ModelSRP22           DeviceModel = 12
	ModelRDP21           DeviceModel = 13
	ModelGKN01           DeviceModel = 14
	ModelROP27           DeviceModel = 15
	ModelRGT01           DeviceModel = 16
	ModelRNM24           DeviceModel = 17
	ModelRNP21           DeviceModel = 18
	ModelRNP22           DeviceModel = 19
	ModelRCT21           DeviceModel = 20
	ModelRCT22           DeviceModel = 21
	ModelROG21           DeviceModel = 22
	ModelROM22           DeviceModel = 23
	ModelROM24           DeviceModel = 24
	ModelSRM22           DeviceModel = 25
	ModelSLR21           DeviceModel = 26
	ModelSLR22           DeviceModel = 27
	ModelRCM21           DeviceModel = 28
	ModelMEM21           DeviceModel = 35
	ModelRCR21           DeviceModel = 41
	ModelRCZ21           DeviceModel = 42
	ModelSLN21           DeviceModel = 45
	ModelSLN22           DeviceModel = 46
	ModelRCK21           DeviceModel = 47
	ModelROB21           DeviceModel = 48
	ModelP501            DeviceModel = 51
	ModelP520            DeviceModel = 52
	ModelP521L           DeviceModel = 53
	ModelRCW21           DeviceModel = 131
	ModelREP21           DeviceModel = 237
	ModelBulikDRS985     DeviceModel = 238

	// Exta Free models, already offset into their namespace.
	ModelROP01 DeviceModel = 326
	ModelROP02 DeviceModel = 327
	ModelROM01 DeviceModel = 328
	ModelROM10 DeviceModel = 329
	ModelROP05 DeviceModel = 330
	ModelROP06 DeviceModel = 331
	ModelROP07 DeviceModel = 332
	ModelRWG01 DeviceModel = 333
	ModelROB01 DeviceModel = 334
	ModelSRP02 DeviceModel = 335
	ModelRDP01 DeviceModel = 336
	ModelRDP02 DeviceModel = 337
	ModelRDP11 DeviceModel = 338
	ModelSRP03 DeviceModel = 339
)

var modelNames = map[DeviceModel]string{
	ModelRNK22:           "RNK-22",
	ModelRNK22TempSensor: "RNK-22 temperature sensor",
	ModelRNK24:           "RNK-24",
	ModelRNK24TempSensor: "RNK-24 temperature sensor",
	ModelP4572:           "P-457/2",
	ModelP4574:           "P-457/4",
	ModelP4578:           "P-457/8",
	ModelP45736:          "P457/36",
	ModelLedixP260:       "ledix touch control P260",
	ModelROP21:           "ROP-21",
	ModelROP22:           "ROP-22",
	ModelSRP22:           "SRP-22",
	ModelRDP21:           "RDP-21",
	ModelGKN01:           "GKN-01",
	ModelROP27:           "ROP-27",
	ModelRGT01:           "RGT-01",
	ModelRNM24:           "RNM-24",
	ModelRNP21:           "RNP-21",
	ModelRNP22:           "RNP-22",
	ModelRCT21:           "RCT-21",
	ModelRCT22:           "RCT-22",
	ModelROG21:           "ROG-21",
	ModelROM22:           "ROM-22",
	ModelROM24:           "ROM-24",
	ModelSRM22:           "SRM-22",
	ModelSLR21:           "SLR-21",
	ModelSLR22:           "SLR-22",
	ModelRCM21:           "RCM-21",
	ModelMEM21:           "MEM-21",
	ModelRCR21:           "RCR-21",
	ModelRCZ21:           "RCZ-21",
	ModelSLN21:           "SLN-21",
	ModelSLN22:           "SLN-22",
	ModelRCK21:           "RCK-21",
	ModelROB21:           "ROB-21",
	ModelP501:            "P-501",
	ModelP520:            "P-520",
	ModelP521L:           "P-521L",
	ModelRCW21:           "RCW-21",
	ModelREP21:           "REP-21",
	ModelBulikDRS985:     "bulik DRS-985",
	ModelROP01:           "ROP-01",
	ModelROP02:           "ROP-02",
	ModelROM01:           "ROM-01",
	ModelROM10:           "ROM-10",
	ModelROP05:           "ROP-05",
	ModelROP06:           "ROP-06",
	ModelROP07:           "ROP-07",
	ModelRWG01:           "RWG-01",
	ModelROB01:           "ROB-01",
	ModelSRP02:           "SRP-02",
	ModelRDP01:           "RDP-01",
	ModelRDP02:           "RDP-02",
	ModelRDP11:           "RDP-11",
	ModelSRP03:           "SRP-03",
}

// ExtaFree reports whether the model belongs to the legacy Exta Free
// catalog.
func (m DeviceModel) ExtaFree() bool {
	return m >= ExtaFreeTypeOffset
}

// String returns the vendor model name.
func (m DeviceModel) String() string {
	if name, ok := modelNames[m]; ok {
		return name
	}
	return fmt.Sprintf("unknown device model (%d)", int(m))
}
