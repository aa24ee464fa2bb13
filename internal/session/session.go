package session

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/extago/extalife/internal/discovery"
	"github.com/extago/extalife/internal/logging"
	"github.com/extago/extalife/internal/protocol"
)

// State is the connection lifecycle of a session. Owned exclusively by the
// session; callers should only ever need Connected / Authenticated.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected // TCP established, not yet logged in
	StateAuthenticated
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateAuthenticated:
		return "authenticated"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// closeSource identifies which code path initiated a close, for logging and
// for deciding whether the disconnect was caller-initiated.
type closeSource string

const (
	closeConnect    closeSource = "connect"
	closeDisconnect closeSource = "disconnect"
	closeReadLoop   closeSource = "read_loop"
	closePingLoop   closeSource = "ping_loop"
	closeRequest    closeSource = "request"
)

const (
	// DefaultKeepalive is the idle interval after which a NOOP ping is sent.
	DefaultKeepalive = 8 * time.Second

	// DefaultExecTimeout bounds a request/response exchange. It is a
	// sliding window: any frame for the command re-arms it.
	DefaultExecTimeout = 3 * time.Second

	// activityGrace absorbs timer jitter around the sliding-timeout
	// boundary so an accumulation frame racing the timer does not kill a
	// healthy connection.
	activityGrace = 250 * time.Millisecond

	// minRearm is the shortest interval the sliding timer is re-armed for.
	minRearm = 50 * time.Millisecond

	// maxDecodeFailures is the run of consecutive undecodable frames after
	// which the stream is assumed corrupted and the connection closed.
	maxDecodeFailures = 5
)

// Callbacks are the session's upward-facing events. All callbacks are
// invoked synchronously; none fire after Disconnect has returned.
type Callbacks struct {
	// OnConnected fires after a successful login exchange.
	OnConnected func(s *Session)

	// OnDisconnected fires exactly once when the connection closes.
	// shouldReconnect is false only for caller-initiated disconnects.
	OnDisconnected func(s *Session, shouldReconnect bool)

	// OnNotification receives every unsolicited notification-status frame.
	OnNotification func(response *protocol.Response)
}

// Options configures a session. Host may be empty, meaning "discover the
// controller via multicast at connect time".
type Options struct {
	Host             string
	Port             int
	Keepalive        time.Duration
	DiscoveryTimeout time.Duration
	Callbacks        Callbacks
	Logger           *zap.Logger
}

// Session owns exactly one TCP connection to the controller: a background
// read loop, a background keepalive loop, write serialization, and the
// request/response correlator. Sessions are single-use; after a close a new
// one must be created.
type Session struct {
	host             string
	port             int
	keepalive        time.Duration
	discoveryTimeout time.Duration
	callbacks        Callbacks
	log              *zap.Logger

	mu     sync.Mutex // guards state, conn, closed, loop channels
	state  State
	conn   net.Conn
	closed bool

	writeMu   sync.Mutex // serializes frame writes; guards lastWrite
	lastWrite time.Time

	execMu sync.Mutex // serializes request/response exchanges

	correlator correlator

	stop     chan struct{}
	readDone chan struct{}
	pingDone chan struct{}

	username string
}

// New creates a disconnected session.
func New(opts Options) *Session {
	if opts.Keepalive <= 0 {
		opts.Keepalive = DefaultKeepalive
	}
	if opts.DiscoveryTimeout <= 0 {
		opts.DiscoveryTimeout = discovery.DefaultTimeout
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		opts.Port = discovery.DefaultPort
	}
	log := opts.Logger
	if log == nil {
		log = logging.Named("session")
	}
	return &Session{
		host:             opts.Host,
		port:             opts.Port,
		keepalive:        opts.Keepalive,
		discoveryTimeout: opts.DiscoveryTimeout,
		callbacks:        opts.Callbacks,
		log:              log,
	}
}

// Host returns the controller address, resolved via discovery if the
// session was created without one.
func (s *Session) Host() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// Port returns the controller TCP port.
func (s *Session) Port() int {
	return s.port
}

// Username returns the account logged in on this session, if any.
func (s *Session) Username() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.username
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the TCP connection is up.
func (s *Session) Connected() bool {
	state := s.State()
	return state == StateConnected || state == StateAuthenticated
}

// Authenticated reports whether the login exchange has completed.
func (s *Session) Authenticated() bool {
	return s.State() == StateAuthenticated
}

// Connect establishes the TCP connection and starts the background loops.
// When the session has no host, the controller is located via multicast
// discovery first. On failure nothing is left open.
func (s *Session) Connect(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &ConnError{Op: "connect", Host: s.host, Message: "session already closed"}
	}
	if s.state != StateDisconnected {
		s.mu.Unlock()
		return &ConnError{Op: "connect", Host: s.host, Message: "already connected"}
	}
	s.state = StateConnecting
	host := s.host
	s.mu.Unlock()

	if host == "" {
		s.log.Debug("no address configured, discovering controller via multicast")
		discovered, err := discovery.Discover(s.discoveryTimeout)
		if err != nil || discovered == "" {
			s.setState(StateDisconnected)
			return &ConnError{Op: "discover", Message: "failed to discover controller on local network", Err: err}
		}
		s.mu.Lock()
		s.host = discovered
		s.port = discovery.DefaultPort
		host = discovered
		s.mu.Unlock()
	}

	addr := net.JoinHostPort(host, strconv.Itoa(s.port))
	s.log.Debug("connecting", zap.String("addr", addr), zap.Duration("timeout", timeout))

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		s.setState(StateDisconnected)
		return newConnError("connect", host, err)
	}
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}

	s.mu.Lock()
	s.conn = conn
	s.state = StateConnected
	s.stop = make(chan struct{})
	s.readDone = make(chan struct{})
	s.pingDone = make(chan struct{})
	s.mu.Unlock()

	s.writeMu.Lock()
	s.lastWrite = time.Now()
	s.writeMu.Unlock()

	go s.readLoop(conn)
	go s.pingLoop()

	s.log.Debug("connected",
		zap.String("local", conn.LocalAddr().String()),
		zap.String("remote", conn.RemoteAddr().String()))
	return nil
}

// Login performs the LOGIN exchange. A failure response with the
// invalid-credentials vendor code surfaces as AuthError; other failures as
// CmdError. On success the session becomes authenticated and the connected
// callback fires.
func (s *Session) Login(ctx context.Context, username, password string) (*protocol.Response, error) {
	if !s.Connected() {
		return nil, &ConnError{Op: "login", Host: s.Host(), Message: "not connected"}
	}
	if s.Authenticated() {
		return nil, &ConnError{Op: "login", Host: s.Host(), Message: "already logged in"}
	}

	s.log.Debug("logging in", zap.String("user", username))
	response, err := s.Exec(ctx, protocol.CmdLogin, protocol.Data{"password": password, "login": username}, 0)
	if err != nil {
		return nil, err
	}
	if err := ResponseError(response); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.username = username
	if s.state == StateConnected {
		s.state = StateAuthenticated
	}
	s.mu.Unlock()

	s.log.Debug("authenticated", zap.String("user", username))
	if cb := s.callbacks.OnConnected; cb != nil {
		cb(s)
	}
	return response, nil
}

// Post writes a single request without awaiting a response. Used for the
// NOOP keepalive and for commands whose response is observed only through
// the correlator.
func (s *Session) Post(command protocol.Command, data protocol.Data) error {
	return s.post(protocol.NewRequest(command, data))
}

func (s *Session) post(request *protocol.Request) error {
	payload, err := request.Bytes()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	s.mu.Lock()
	conn := s.conn
	closed := s.closed
	s.mu.Unlock()
	if conn == nil || closed {
		s.writeMu.Unlock()
		return &ConnError{Op: "write", Host: s.Host(), Message: "not connected"}
	}
	logging.LogFrame(">>>", s.Host(), request.Command.String(), []byte(request.LogString()))
	_, err = conn.Write(payload)
	s.lastWrite = time.Now()
	s.writeMu.Unlock()

	if err != nil {
		s.close(closeRequest)
		return newConnError("write", s.Host(), err)
	}
	return nil
}

// Exec sends a request and awaits its terminal response, assembling
// multi-frame replies in arrival order. Exchanges are serialized: only one
// Exec is in flight per session, matching the controller's
// one-command-at-a-time protocol (keepalive pings bypass this lock).
//
// The timeout is a sliding window keyed off the last frame received for
// this command; accumulation frames re-arm it, so slow multi-fragment
// transfers survive without one long fixed bound. If the window expires
// the connection is force-closed: a stalled exchange means a dead socket,
// not a slow command.
func (s *Session) Exec(ctx context.Context, command protocol.Command, data protocol.Data, timeout time.Duration) (*protocol.Response, error) {
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}

	s.execMu.Lock()
	defer s.execMu.Unlock()

	if !s.Connected() {
		return nil, &ConnError{Op: "exec", Host: s.Host(), Message: "not connected"}
	}

	w := s.correlator.register(command)
	defer s.correlator.unregister(w)

	if err := s.post(protocol.NewRequest(command, data)); err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-w.done:
			frames, err := w.result()
			if err != nil {
				return nil, err
			}
			if len(frames) == 0 {
				return nil, &ConnError{Op: "exec", Host: s.Host(), Message: "no response received from controller"}
			}
			return protocol.Merge(frames), nil

		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timer.C:
			idle := time.Since(w.lastActivity())
			if idle > timeout+activityGrace {
				s.log.Error("exchange stalled, closing connection",
					zap.Stringer("command", command),
					zap.Duration("idle", idle))
				s.close(closeRequest)
				return nil, &ConnError{
					Op: "exec", Host: s.Host(), Timeout: true,
					Message: "timeout while waiting for controller response",
				}
			}
			remaining := timeout - idle
			if remaining < minRearm {
				remaining = minRearm
			}
			timer.Reset(remaining)
		}
	}
}

// Disconnect closes the connection and waits for both background loops to
// finish, so no callback fires after it returns. Safe to call repeatedly;
// only the first call emits the disconnected event.
func (s *Session) Disconnect() {
	s.close(closeDisconnect)
	s.waitLoops()
}

// readLoop reads frame after frame, decoding each and routing it: the
// notification sink first for notification-status frames, then the
// correlator. Decode failures are frame-local; a run of them closes the
// connection defensively.
func (s *Session) readLoop(conn net.Conn) {
	defer close(s.readDone)

	frames := protocol.NewFrameReader(conn)
	decodeFailures := 0
	for {
		frame, err := frames.ReadFrame()
		if err != nil {
			if !s.isClosed() {
				s.log.Error("read failed", zap.Error(err))
				s.close(closeReadLoop)
			}
			return
		}

		response, err := protocol.Decode(frame)
		if err != nil {
			decodeFailures++
			s.log.Warn("dropping undecodable frame",
				zap.Error(err), zap.Int("consecutive_failures", decodeFailures))
			logging.LogRawBytes("undecodable frame", frame)
			if decodeFailures >= maxDecodeFailures {
				s.log.Error("stream appears corrupted, closing connection")
				s.close(closeReadLoop)
				return
			}
			continue
		}
		decodeFailures = 0

		logging.LogFrame("<<<", s.Host(), response.Command.String(), frame)

		if response.Status == protocol.StatusNotification {
			if cb := s.callbacks.OnNotification; cb != nil {
				cb(response)
			}
		}
		s.correlator.dispatch(response)
	}
}

// pingLoop posts a NOOP whenever the keepalive interval has elapsed since
// the last write of any kind.
func (s *Session) pingLoop() {
	defer close(s.pingDone)

	for {
		s.writeMu.Lock()
		idle := time.Since(s.lastWrite)
		s.writeMu.Unlock()

		if idle < s.keepalive {
			select {
			case <-time.After(s.keepalive - idle):
			case <-s.stop:
				return
			}
			continue
		}

		if err := s.Post(protocol.CmdNoop, nil); err != nil {
			// Post already closed the connection on write failure
			if !s.isClosed() {
				s.log.Error("keepalive failed", zap.Error(err))
				s.close(closePingLoop)
			}
			return
		}
	}
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// close tears the connection down once: closes the socket (unblocking the
// read loop), stops the ping loop, resolves every pending exchange with a
// connection-closed error and emits the disconnected event. Subsequent
// calls are no-ops.
func (s *Session) close(source closeSource) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	stop := s.stop
	if conn == nil {
		// never connected; nothing to tear down
		s.state = StateDisconnected
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	s.mu.Unlock()

	s.log.Debug("closing connection", zap.String("source", string(source)))

	_ = conn.Close()
	close(stop)

	s.correlator.failAll(&ConnError{Op: "exec", Host: s.Host(), Message: "connection closed"})

	s.setState(StateDisconnected)

	shouldReconnect := source != closeDisconnect && source != closeConnect
	if cb := s.callbacks.OnDisconnected; cb != nil {
		cb(s, shouldReconnect)
	}
}

// waitLoops blocks until both background loops have exited.
func (s *Session) waitLoops() {
	s.mu.Lock()
	readDone, pingDone := s.readDone, s.pingDone
	s.mu.Unlock()

	if readDone != nil {
		<-readDone
	}
	if pingDone != nil {
		<-pingDone
	}
}
