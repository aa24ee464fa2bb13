package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// readBufferSize matches the controller's own TCP buffer.
const readBufferSize = 8192

// MaxFrameSize bounds a single frame. Backup downloads produce the largest
// frames seen in practice (tens of KB); anything beyond this indicates a
// corrupted stream rather than a legitimate payload.
const MaxFrameSize = 1 << 20

// ErrFrameTooLarge is returned when no ETX arrives within MaxFrameSize bytes.
var ErrFrameTooLarge = errors.New("frame exceeds maximum size")

// FrameReader splits an ETX-delimited byte stream into frames.
type FrameReader struct {
	br *bufio.Reader
}

// NewFrameReader wraps r for frame-at-a-time reading.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{br: bufio.NewReaderSize(r, readBufferSize)}
}

// ReadFrame blocks until a full ETX-terminated frame is available and
// returns it with the ETX stripped. Deadlines are managed by the caller on
// the underlying connection.
func (f *FrameReader) ReadFrame() ([]byte, error) {
	var frame []byte
	for {
		chunk, err := f.br.ReadSlice(ETX)
		frame = append(frame, chunk...)
		if err == nil {
			return frame[:len(frame)-1], nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(frame) > MaxFrameSize {
				return nil, fmt.Errorf("%w (%d bytes read)", ErrFrameTooLarge, len(frame))
			}
			continue
		}
		return nil, err
	}
}
