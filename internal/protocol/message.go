package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ETX terminates every frame on the wire. There is no length prefix; the
// controller simply streams one JSON object per frame followed by this byte.
const ETX = 0x03

// Data is a single JSON payload fragment exchanged with the controller.
type Data = map[string]any

// Request is an outbound command with its payload. Immutable once built.
type Request struct {
	Command Command
	Data    Data
}

// NewRequest builds a request for the given command. A nil data map is
// serialized as an empty object, which is what the firmware expects.
func NewRequest(command Command, data Data) *Request {
	return &Request{Command: command, Data: data}
}

// Bytes serializes the request to its wire form: one JSON object followed
// by ETX. The NOOP keepalive is special-cased to a single space, matching
// the controller's minimal ping frame.
func (r *Request) Bytes() ([]byte, error) {
	if r.Command == CmdNoop {
		return []byte{' ', ETX}, nil
	}

	data := r.Data
	if data == nil {
		data = Data{}
	}
	encoded, err := json.Marshal(struct {
		Command Command `json:"command"`
		Data    Data    `json:"data"`
	}{r.Command, data})
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s request: %w", r.Command, err)
	}
	return append(encoded, ETX), nil
}

// LogString renders the request for debug logging. LOGIN frames have the
// password field masked.
func (r *Request) LogString() string {
	data := r.Data
	if r.Command == CmdLogin && data != nil {
		masked := make(Data, len(data))
		for k, v := range data {
			masked[k] = v
		}
		if _, ok := masked["password"]; ok {
			masked["password"] = "********"
		}
		data = masked
	}
	encoded, err := json.Marshal(struct {
		Command Command `json:"command"`
		Data    Data    `json:"data"`
	}{r.Command, data})
	if err != nil {
		return fmt.Sprintf("{command: %d}", r.Command)
	}
	return string(encoded)
}

// Response is a decoded frame, or a logical reply assembled from several
// frames. Data holds the payload fragments in arrival order.
type Response struct {
	Command Command
	Status  Status
	Data    []Data
}

// Decode parses one ETX-delimited frame into a Response. A trailing ETX is
// tolerated but not required, so the same entry point serves TCP frames and
// UDP discovery datagrams.
//
// DOWNLOAD_BACKUP frames carry their payload at the top level of the JSON
// object rather than under "data"; for those the fragment is the whole
// object minus the command and status keys.
func Decode(frame []byte) (*Response, error) {
	frame = bytes.TrimSuffix(bytes.TrimSpace(frame), []byte{ETX})
	if len(frame) == 0 {
		return nil, &DecodeError{Reason: "empty frame"}
	}

	var envelope struct {
		Command *int            `json:"command"`
		Status  string          `json:"status"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	if envelope.Command == nil {
		return nil, &DecodeError{Reason: "missing command field"}
	}

	command := Command(*envelope.Command)
	if !command.Valid() {
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown command code %d", *envelope.Command)}
	}
	status := Status(envelope.Status)
	if !status.Valid() {
		return nil, &DecodeError{Reason: fmt.Sprintf("unknown status %q", envelope.Status)}
	}

	response := &Response{Command: command, Status: status}

	if command == CmdDownloadBackup {
		var payload Data
		if err := json.Unmarshal(frame, &payload); err != nil {
			return nil, &DecodeError{Reason: "malformed backup frame", Err: err}
		}
		delete(payload, "command")
		delete(payload, "status")
		response.Data = []Data{payload}
		return response, nil
	}

	fragments, err := decodeFragments(envelope.Data)
	if err != nil {
		return nil, err
	}
	response.Data = fragments
	return response, nil
}

// decodeFragments normalizes the "data" field. An object yields one
// fragment, an array one fragment per element, and null a single nil
// fragment so the fragment count matches the frame count.
func decodeFragments(raw json.RawMessage) ([]Data, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []Data{nil}, nil
	}
	switch raw[0] {
	case '{':
		var fragment Data
		if err := json.Unmarshal(raw, &fragment); err != nil {
			return nil, &DecodeError{Reason: "malformed data object", Err: err}
		}
		return []Data{fragment}, nil
	case '[':
		var fragments []Data
		if err := json.Unmarshal(raw, &fragments); err != nil {
			return nil, &DecodeError{Reason: "malformed data array", Err: err}
		}
		return fragments, nil
	default:
		return nil, &DecodeError{Reason: "data is neither object nor array"}
	}
}

// Merge assembles a logical reply from a sequence of frames belonging to
// one exchange. Command and status come from the final (terminal) frame;
// fragments are concatenated in arrival order.
func Merge(frames []*Response) *Response {
	if len(frames) == 0 {
		return nil
	}
	last := frames[len(frames)-1]
	merged := &Response{Command: last.Command, Status: last.Status}
	for _, frame := range frames {
		merged.Data = append(merged.Data, frame.Data...)
	}
	return merged
}

// ErrorCode extracts the vendor error code from a failure response.
// Non-failure responses report ErrCodeSuccess.
func (r *Response) ErrorCode() ErrorCode {
	if r.Status != StatusFailure || len(r.Data) == 0 || r.Data[0] == nil {
		return ErrCodeSuccess
	}
	if code, ok := asInt(r.Data[0]["code"]); ok {
		return ErrorCode(code)
	}
	return ErrUnknown
}

// First returns the first payload fragment, or nil when there is none.
func (r *Response) First() Data {
	if len(r.Data) == 0 {
		return nil
	}
	return r.Data[0]
}

// asInt coerces JSON-decoded numeric values to int.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
