package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/extago/extalife/internal/protocol"
)

// startGateway runs a scripted controller on a loopback listener. Every
// decoded request frame is handed to handle along with the live connection
// and a send helper that appends the ETX terminator. Keepalive pings arrive
// as CmdNoop.
func startGateway(t *testing.T, handle func(conn net.Conn, send func(frame string), command protocol.Command)) (string, int) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		send := func(frame string) {
			_, _ = conn.Write(append([]byte(frame), protocol.ETX))
		}

		frames := protocol.NewFrameReader(conn)
		for {
			frame, err := frames.ReadFrame()
			if err != nil {
				return
			}
			if len(bytes.TrimSpace(frame)) == 0 {
				handle(conn, send, protocol.CmdNoop)
				continue
			}
			var req struct {
				Command protocol.Command `json:"command"`
			}
			if err := json.Unmarshal(frame, &req); err != nil {
				continue
			}
			handle(conn, send, req.Command)
		}
	}()

	return "127.0.0.1", ln.Addr().(*net.TCPAddr).Port
}

func connectSession(t *testing.T, host string, port int, callbacks Callbacks) *Session {
	t.Helper()

	s := New(Options{Host: host, Port: port, Keepalive: time.Minute, Callbacks: callbacks})
	if err := s.Connect(context.Background(), time.Second); err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(s.Disconnect)
	return s
}

func TestLoginSuccess(t *testing.T) {
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdLogin {
			send(`{"command":1,"status":"success","data":{"config_version":42}}`)
		}
	})

	connected := make(chan struct{}, 1)
	s := connectSession(t, host, port, Callbacks{
		OnConnected: func(*Session) { connected <- struct{}{} },
	})

	response, err := s.Login(context.Background(), "admin", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !s.Authenticated() {
		t.Error("session not authenticated after login")
	}
	if s.Username() != "admin" {
		t.Errorf("username = %q, want %q", s.Username(), "admin")
	}
	if got := response.First()["config_version"]; got != float64(42) {
		t.Errorf("config_version = %v, want 42", got)
	}

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Error("connected callback never fired")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdLogin {
			send(`{"command":1,"status":"failure","data":{"code":-2}}`)
		}
	})

	s := connectSession(t, host, port, Callbacks{})

	_, err := s.Login(context.Background(), "admin", "wrong")
	if !IsAuthError(err) {
		t.Fatalf("err = %v, want AuthError", err)
	}
	if s.Authenticated() {
		t.Error("session authenticated despite login failure")
	}
	if !s.Connected() {
		t.Error("login failure should not drop the connection")
	}
}

func TestExecMergesFragments(t *testing.T) {
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdFetchReceivers {
			send(`{"command":37,"status":"searching","data":{"id":1}}`)
			send(`{"command":37,"status":"searching","data":{"id":2}}`)
			send(`{"command":37,"status":"success","data":{"id":3}}`)
		}
	})

	s := connectSession(t, host, port, Callbacks{})

	response, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 0)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if response.Status != protocol.StatusSuccess {
		t.Errorf("status = %q, want success", response.Status)
	}
	if len(response.Data) != 3 {
		t.Fatalf("fragments = %d, want 3", len(response.Data))
	}
	for i, want := range []float64{1, 2, 3} {
		if got := response.Data[i]["id"]; got != want {
			t.Errorf("fragment %d id = %v, want %v", i, got, want)
		}
	}
}

func TestExecSlidingTimeout(t *testing.T) {
	// Each inter-frame gap is below the timeout but the whole transfer is
	// well above it. Only a window re-armed per frame lets this succeed.
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdFetchSensors {
			go func() {
				for i := 0; i < 4; i++ {
					time.Sleep(120 * time.Millisecond)
					send(`{"command":38,"status":"searching","data":{}}`)
				}
				time.Sleep(120 * time.Millisecond)
				send(`{"command":38,"status":"success","data":{}}`)
			}()
		}
	})

	s := connectSession(t, host, port, Callbacks{})

	response, err := s.Exec(context.Background(), protocol.CmdFetchSensors, nil, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(response.Data) != 5 {
		t.Errorf("fragments = %d, want 5", len(response.Data))
	}
}

func TestExecTimeoutClosesConnection(t *testing.T) {
	host, port := startGateway(t, func(net.Conn, func(string), protocol.Command) {
		// never answer
	})

	disconnected := make(chan bool, 1)
	s := connectSession(t, host, port, Callbacks{
		OnDisconnected: func(_ *Session, shouldReconnect bool) { disconnected <- shouldReconnect },
	})

	_, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 150*time.Millisecond)
	var connErr *ConnError
	if !errors.As(err, &connErr) {
		t.Fatalf("err = %v, want ConnError", err)
	}
	if !connErr.Timeout {
		t.Errorf("ConnError.Timeout = false, want true")
	}

	select {
	case shouldReconnect := <-disconnected:
		if !shouldReconnect {
			t.Error("stalled exchange should request a reconnect")
		}
	case <-time.After(time.Second):
		t.Fatal("disconnected callback never fired")
	}
	if s.Connected() {
		t.Error("session still connected after a stalled exchange")
	}
}

func TestPeerCloseFailsPendingExec(t *testing.T) {
	host, port := startGateway(t, func(conn net.Conn, _ func(string), command protocol.Command) {
		if command == protocol.CmdFetchReceivers {
			_ = conn.Close()
		}
	})

	disconnected := make(chan bool, 1)
	s := connectSession(t, host, port, Callbacks{
		OnDisconnected: func(_ *Session, shouldReconnect bool) { disconnected <- shouldReconnect },
	})

	_, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 5*time.Second)
	if !IsConnError(err) {
		t.Fatalf("err = %v, want ConnError", err)
	}

	select {
	case shouldReconnect := <-disconnected:
		if !shouldReconnect {
			t.Error("peer close should request a reconnect")
		}
	case <-time.After(time.Second):
		t.Fatal("disconnected callback never fired")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	host, port := startGateway(t, func(net.Conn, func(string), protocol.Command) {})

	disconnected := make(chan bool, 2)
	s := connectSession(t, host, port, Callbacks{
		OnDisconnected: func(_ *Session, shouldReconnect bool) { disconnected <- shouldReconnect },
	})

	s.Disconnect()
	s.Disconnect()

	select {
	case shouldReconnect := <-disconnected:
		if shouldReconnect {
			t.Error("caller-initiated disconnect should not request a reconnect")
		}
	case <-time.After(time.Second):
		t.Fatal("disconnected callback never fired")
	}

	select {
	case <-disconnected:
		t.Error("disconnected callback fired more than once")
	case <-time.After(100 * time.Millisecond):
	}

	if s.State() != StateDisconnected {
		t.Errorf("state = %v, want disconnected", s.State())
	}
}

func TestKeepalivePing(t *testing.T) {
	pings := make(chan struct{}, 8)
	host, port := startGateway(t, func(_ net.Conn, _ func(string), command protocol.Command) {
		if command == protocol.CmdNoop {
			select {
			case pings <- struct{}{}:
			default:
			}
		}
	})

	s := New(Options{Host: host, Port: port, Keepalive: 50 * time.Millisecond})
	if err := s.Connect(context.Background(), time.Second); err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer s.Disconnect()

	select {
	case <-pings:
	case <-time.After(2 * time.Second):
		t.Fatal("no keepalive ping observed")
	}
}

func TestNotificationForPendingCommandDoesNotResolve(t *testing.T) {
	// a notification carrying the same command code as the pending
	// exchange must reach the notification sink, not the exchange
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdFetchReceivers {
			send(`{"command":37,"status":"notification","data":{"id":99}}`)
			send(`{"command":37,"status":"success","data":{"id":1}}`)
		}
	})

	notifications := make(chan *protocol.Response, 1)
	s := connectSession(t, host, port, Callbacks{
		OnNotification: func(response *protocol.Response) { notifications <- response },
	})

	response, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 0)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if len(response.Data) != 1 {
		t.Fatalf("fragments = %d, want only the terminal fragment", len(response.Data))
	}
	if got := response.First()["id"]; got != float64(1) {
		t.Errorf("fragment id = %v, want 1", got)
	}

	select {
	case notification := <-notifications:
		if got := notification.First()["id"]; got != float64(99) {
			t.Errorf("notification id = %v, want 99", got)
		}
	case <-time.After(time.Second):
		t.Fatal("notification callback never fired")
	}
}

func TestBackToBackExecSeesOwnFragments(t *testing.T) {
	calls := 0
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command != protocol.CmdFetchReceivers {
			return
		}
		calls++
		if calls == 1 {
			send(`{"command":37,"status":"searching","data":{"id":10}}`)
			send(`{"command":37,"status":"success","data":{"id":11}}`)
			return
		}
		send(`{"command":37,"status":"success","data":{"id":20}}`)
	})

	s := connectSession(t, host, port, Callbacks{})

	first, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 0)
	if err != nil {
		t.Fatalf("first exec: %v", err)
	}
	if len(first.Data) != 2 {
		t.Fatalf("first exchange fragments = %d, want 2", len(first.Data))
	}

	second, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 0)
	if err != nil {
		t.Fatalf("second exec: %v", err)
	}
	if len(second.Data) != 1 {
		t.Fatalf("second exchange fragments = %d, want 1", len(second.Data))
	}
	if got := second.First()["id"]; got != float64(20) {
		t.Errorf("second exchange id = %v, want 20 (leaked a fragment from the first)", got)
	}
}

func TestNotificationRouting(t *testing.T) {
	host, port := startGateway(t, func(_ net.Conn, send func(string), command protocol.Command) {
		if command == protocol.CmdFetchReceivers {
			send(`{"command":20,"status":"notification","data":{"id":5,"channel":1}}`)
			send(`{"command":37,"status":"success","data":{}}`)
		}
	})

	notifications := make(chan *protocol.Response, 1)
	s := connectSession(t, host, port, Callbacks{
		OnNotification: func(response *protocol.Response) { notifications <- response },
	})

	if _, err := s.Exec(context.Background(), protocol.CmdFetchReceivers, nil, 0); err != nil {
		t.Fatalf("exec: %v", err)
	}

	select {
	case notification := <-notifications:
		if notification.Command != protocol.CmdControlDevice {
			t.Errorf("notification command = %v, want %v", notification.Command, protocol.CmdControlDevice)
		}
		if got := notification.First()["id"]; got != float64(5) {
			t.Errorf("notification id = %v, want 5", got)
		}
	case <-time.After(time.Second):
		t.Fatal("notification callback never fired")
	}
}
