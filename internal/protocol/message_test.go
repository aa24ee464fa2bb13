package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestRequestBytes(t *testing.T) {
	tests := []struct {
		name    string
		request *Request
		verify  func(t *testing.T, encoded []byte)
	}{
		{
			name:    "noop serializes to keepalive space frame",
			request: NewRequest(CmdNoop, nil),
			verify: func(t *testing.T, encoded []byte) {
				if !bytes.Equal(encoded, []byte{' ', ETX}) {
					t.Errorf("encoded = %q, want space+ETX", encoded)
				}
			},
		},
		{
			name:    "nil data serializes as empty object",
			request: NewRequest(CmdRestart, nil),
			verify: func(t *testing.T, encoded []byte) {
				if !bytes.Contains(encoded, []byte(`"data":{}`)) {
					t.Errorf("encoded = %q, want empty data object", encoded)
				}
			},
		},
		{
			name:    "login frame carries credentials",
			request: NewRequest(CmdLogin, Data{"login": "admin", "password": "secret"}),
			verify: func(t *testing.T, encoded []byte) {
				if encoded[len(encoded)-1] != ETX {
					t.Fatalf("frame not ETX-terminated: %q", encoded)
				}
				var payload struct {
					Command int  `json:"command"`
					Data    Data `json:"data"`
				}
				if err := json.Unmarshal(encoded[:len(encoded)-1], &payload); err != nil {
					t.Fatalf("frame is not valid JSON: %v", err)
				}
				if payload.Command != int(CmdLogin) {
					t.Errorf("command = %d, want %d", payload.Command, CmdLogin)
				}
				if payload.Data["password"] != "secret" {
					t.Errorf("password = %v, want secret", payload.Data["password"])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := tt.request.Bytes()
			if err != nil {
				t.Fatalf("Bytes() error = %v", err)
			}
			tt.verify(t, encoded)
		})
	}
}

func TestRequestLogStringMasksPassword(t *testing.T) {
	request := NewRequest(CmdLogin, Data{"login": "admin", "password": "secret"})

	logged := request.LogString()
	if strings.Contains(logged, "secret") {
		t.Errorf("LogString leaked password: %s", logged)
	}
	if !strings.Contains(logged, "********") {
		t.Errorf("LogString missing mask: %s", logged)
	}
	// the request itself must stay untouched
	if request.Data["password"] != "secret" {
		t.Errorf("request data mutated: %v", request.Data)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		wantErr bool
		verify  func(t *testing.T, r *Response)
	}{
		{
			name:  "success with object data",
			frame: `{"command":37,"status":"success","data":{"devices":[]}}` + "\x03",
			verify: func(t *testing.T, r *Response) {
				if r.Command != CmdFetchReceivers {
					t.Errorf("command = %v, want FETCH_RECEIVERS", r.Command)
				}
				if r.Status != StatusSuccess {
					t.Errorf("status = %v, want success", r.Status)
				}
				if len(r.Data) != 1 || r.Data[0]["devices"] == nil {
					t.Errorf("data = %v, want one fragment with devices", r.Data)
				}
			},
		},
		{
			name:  "null data yields single nil fragment",
			frame: `{"command":150,"status":"success","data":null}`,
			verify: func(t *testing.T, r *Response) {
				if len(r.Data) != 1 || r.Data[0] != nil {
					t.Errorf("data = %v, want [nil]", r.Data)
				}
			},
		},
		{
			name:  "array data yields fragment per element",
			frame: `{"command":38,"status":"success","data":[{"a":1},{"b":2}]}`,
			verify: func(t *testing.T, r *Response) {
				if len(r.Data) != 2 {
					t.Fatalf("len(data) = %d, want 2", len(r.Data))
				}
			},
		},
		{
			name:  "broadcast datagram without ETX",
			frame: `{"command":0,"status":"broadcast","data":null}`,
			verify: func(t *testing.T, r *Response) {
				if r.Command != CmdNoop || r.Status != StatusBroadcast {
					t.Errorf("got %v/%v, want NOOP/broadcast", r.Command, r.Status)
				}
			},
		},
		{
			name:  "backup frame carries payload at top level",
			frame: `{"command":500,"status":"partial","data_element":1,"payload":"abc"}` + "\x03",
			verify: func(t *testing.T, r *Response) {
				if len(r.Data) != 1 {
					t.Fatalf("len(data) = %d, want 1", len(r.Data))
				}
				fragment := r.Data[0]
				if fragment["data_element"] == nil || fragment["payload"] != "abc" {
					t.Errorf("fragment = %v, want data_element and payload", fragment)
				}
				if _, ok := fragment["command"]; ok {
					t.Error("fragment still contains command key")
				}
				if _, ok := fragment["status"]; ok {
					t.Error("fragment still contains status key")
				}
			},
		},
		{
			name:    "malformed JSON",
			frame:   `{"command":37,"status":` + "\x03",
			wantErr: true,
		},
		{
			name:    "unknown command code",
			frame:   `{"command":9999,"status":"success","data":null}`,
			wantErr: true,
		},
		{
			name:    "unknown status",
			frame:   `{"command":37,"status":"weird","data":null}`,
			wantErr: true,
		},
		{
			name:    "missing command",
			frame:   `{"status":"success","data":null}`,
			wantErr: true,
		},
		{
			name:    "empty frame",
			frame:   "\x03",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			response, err := Decode([]byte(tt.frame))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Decode() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var decodeErr *DecodeError
				if !asDecodeError(err, &decodeErr) {
					t.Errorf("error type = %T, want *DecodeError", err)
				}
				return
			}
			tt.verify(t, response)
		})
	}
}

func asDecodeError(err error, target **DecodeError) bool {
	de, ok := err.(*DecodeError)
	if ok {
		*target = de
	}
	return ok
}

func TestDecodeEncodeRoundTrip(t *testing.T) {
	// encode a request, reshape it as a response, decode it back
	request := NewRequest(CmdControlDevice, Data{"id": float64(11), "channel": float64(1), "state": float64(1)})
	encoded, err := request.Bytes()
	if err != nil {
		t.Fatal(err)
	}

	frame := bytes.Replace(encoded, []byte(`"data"`), []byte(`"status":"success","data"`), 1)
	response, err := Decode(frame)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if response.Command != request.Command {
		t.Errorf("command = %v, want %v", response.Command, request.Command)
	}
	for key, want := range request.Data {
		if got := response.Data[0][key]; got != want {
			t.Errorf("data[%q] = %v, want %v", key, got, want)
		}
	}
}

func TestResponseErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		response *Response
		want     ErrorCode
	}{
		{
			name: "failure with vendor code",
			response: &Response{
				Command: CmdLogin,
				Status:  StatusFailure,
				Data:    []Data{{"code": float64(-2)}},
			},
			want: ErrInvalidLogPass,
		},
		{
			name:     "success reports sentinel",
			response: &Response{Command: CmdLogin, Status: StatusSuccess, Data: []Data{{}}},
			want:     ErrCodeSuccess,
		},
		{
			name:     "failure without payload",
			response: &Response{Command: CmdLogin, Status: StatusFailure},
			want:     ErrCodeSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.response.ErrorCode(); got != tt.want {
				t.Errorf("ErrorCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	frames := []*Response{
		{Command: CmdFetchReceivers, Status: StatusSearching, Data: []Data{{"n": 1.0}}},
		{Command: CmdFetchReceivers, Status: StatusPartial, Data: []Data{{"n": 2.0}}},
		{Command: CmdFetchReceivers, Status: StatusSuccess, Data: []Data{{"n": 3.0}}},
	}

	merged := Merge(frames)
	if merged.Status != StatusSuccess {
		t.Errorf("status = %v, want success", merged.Status)
	}
	if len(merged.Data) != 3 {
		t.Fatalf("len(data) = %d, want 3", len(merged.Data))
	}
	for i, fragment := range merged.Data {
		if fragment["n"] != float64(i+1) {
			t.Errorf("fragment %d = %v, want n=%d (arrival order)", i, fragment, i+1)
		}
	}

	if Merge(nil) != nil {
		t.Error("Merge(nil) should be nil")
	}
}
