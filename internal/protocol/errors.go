package protocol

import "fmt"

// DecodeError reports a frame that could not be parsed into a Response.
// A decode failure is local to the frame: the read loop logs it, drops the
// frame and keeps reading, since the ETX delimiter preserves stream
// position for the next frame.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("frame decode failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("frame decode failed: %s", e.Reason)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
