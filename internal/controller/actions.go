package controller

// Action is a symbolic device operation, translated to the CONTROL_DEVICE
// numeric state code the firmware expects.
type Action string

const (
	ActionTurnOn         Action = "TURN_ON"
	ActionTurnOff        Action = "TURN_OFF"
	ActionSetBrightness  Action = "SET_BRIGHTNESS"
	ActionSetColor       Action = "SET_COLOR"
	ActionSetPosition    Action = "SET_POSITION"
	ActionSetGatePos     Action = "SET_GATE_POSITION"
	ActionSetTemperature Action = "SET_TEMPERATURE"
	ActionStop           Action = "STOP"
	ActionOpen           Action = "UP"
	ActionClose          Action = "DOWN"
	ActionSetMode        Action = "SET_MODE"
	ActionRGTModeManual  Action = "RGT_SET_MODE_MANUAL"
	ActionRGTModeAuto    Action = "RGT_SET_MODE_AUTO"

	// Exta Free receivers model momentary button presses, so every
	// operation is a press/release pair.
	ActionFreeTurnOnPress         Action = "TURN_ON_PRESS"
	ActionFreeTurnOnRelease       Action = "TURN_ON_RELEASE"
	ActionFreeTurnOffPress        Action = "TURN_OFF_PRESS"
	ActionFreeTurnOffRelease      Action = "TURN_OFF_RELEASE"
	ActionFreeUpPress             Action = "UP_PRESS"
	ActionFreeUpRelease           Action = "UP_RELEASE"
	ActionFreeDownPress           Action = "DOWN_PRESS"
	ActionFreeDownRelease         Action = "DOWN_RELEASE"
	ActionFreeBrightUpPress       Action = "BRIGHT_UP_PRESS"
	ActionFreeBrightUpRelease     Action = "BRIGHT_UP_RELEASE"
	ActionFreeBrightDownPress     Action = "BRIGHT_DOWN_PRESS"
	ActionFreeBrightDownRelease   Action = "BRIGHT_DOWN_RELEASE"
)

// actionStates is the vendor mapping from symbolic action to the numeric
// "state" field. Actions absent from the table carry their payload in
// other fields (value, mode, rgb) and send a null state, matching the
// official app.
var actionStates = map[Action]int{
	ActionTurnOn:         1,
	ActionTurnOff:        0,
	ActionOpen:           1,
	ActionClose:          0,
	ActionStop:           2,
	ActionSetGatePos:     1,
	ActionRGTModeAuto:    0,
	ActionRGTModeManual:  1,
	ActionSetTemperature: 1,

	ActionFreeTurnOnPress:       1,
	ActionFreeTurnOnRelease:     2,
	ActionFreeTurnOffPress:      3,
	ActionFreeTurnOffRelease:    4,
	ActionFreeUpPress:           1,
	ActionFreeUpRelease:         2,
	ActionFreeDownPress:         3,
	ActionFreeDownRelease:       4,
	ActionFreeBrightUpPress:     1,
	ActionFreeBrightUpRelease:   2,
	ActionFreeBrightDownPress:   3,
	ActionFreeBrightDownRelease: 4,
}

// State returns the numeric state code for the action, or ok=false when
// the action has no fixed code.
func (a Action) State() (int, bool) {
	state, ok := actionStates[a]
	return state, ok
}
