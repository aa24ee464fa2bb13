package protocol

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestFrameReader(t *testing.T) {
	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{
			name:   "single frame",
			stream: "{\"command\":0}\x03",
			want:   []string{`{"command":0}`},
		},
		{
			name:   "multiple frames in one read",
			stream: "aaa\x03bbb\x03ccc\x03",
			want:   []string{"aaa", "bbb", "ccc"},
		},
		{
			name:   "empty frame between delimiters",
			stream: "aaa\x03\x03bbb\x03",
			want:   []string{"aaa", "", "bbb"},
		},
		{
			name:   "frame larger than the internal buffer",
			stream: strings.Repeat("x", readBufferSize*2) + "\x03tail\x03",
			want:   []string{strings.Repeat("x", readBufferSize*2), "tail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewFrameReader(strings.NewReader(tt.stream))
			for i, want := range tt.want {
				frame, err := reader.ReadFrame()
				if err != nil {
					t.Fatalf("frame %d: ReadFrame() error = %v", i, err)
				}
				if string(frame) != want {
					t.Errorf("frame %d = %q, want %q", i, frame, want)
				}
			}
			if _, err := reader.ReadFrame(); err != io.EOF {
				t.Errorf("after last frame: error = %v, want EOF", err)
			}
		})
	}
}

func TestFrameReaderTruncatedStream(t *testing.T) {
	reader := NewFrameReader(strings.NewReader("no delimiter here"))

	_, err := reader.ReadFrame()
	if err == nil {
		t.Fatal("expected error for stream without ETX")
	}
}

func TestFrameReaderOversizedFrame(t *testing.T) {
	// endless stream of non-ETX bytes must not be buffered forever
	reader := NewFrameReader(io.MultiReader(
		bytes.NewReader(bytes.Repeat([]byte{'x'}, MaxFrameSize+readBufferSize*2)),
		strings.NewReader("\x03"),
	))

	_, err := reader.ReadFrame()
	if err == nil || !strings.Contains(err.Error(), "maximum size") {
		t.Fatalf("error = %v, want frame size error", err)
	}
}
