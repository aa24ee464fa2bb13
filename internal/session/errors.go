package session

import (
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"

	"github.com/extago/extalife/internal/protocol"
)

// ConnError is a socket-level failure: refused, timed out, reset, or
// discovery coming up empty. The session never retries these itself;
// reconnect policy belongs to the caller.
type ConnError struct {
	Op      string // operation that failed: "connect", "write", "exec", ...
	Host    string
	Message string
	Err     error
	Timeout bool
}

func (e *ConnError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Op, e.Host, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// newConnError classifies the underlying OS error so callers get a usable
// message without digging through the error chain.
func newConnError(op, host string, err error) *ConnError {
	connErr := &ConnError{Op: op, Host: host, Err: err, Message: "connection failed"}

	switch {
	case err == nil:
	case os.IsTimeout(err):
		connErr.Message = "connection timed out"
		connErr.Timeout = true
	case errors.Is(err, syscall.ECONNREFUSED):
		connErr.Message = "connection refused"
	case errors.Is(err, syscall.ECONNRESET):
		connErr.Message = "connection reset by peer"
	case errors.Is(err, syscall.EHOSTUNREACH), errors.Is(err, syscall.ENETUNREACH):
		connErr.Message = "host unreachable"
	default:
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			connErr.Message = "hostname resolution failed"
		}
	}
	return connErr
}

// CmdError is a terminal FAILURE response. It carries the originating
// command and the vendor error code for diagnostics.
type CmdError struct {
	Command protocol.Command
	Code    protocol.ErrorCode
}

func (e *CmdError) Error() string {
	return fmt.Sprintf("command %s failed: %s (%d)", e.Command, e.Code, int(e.Code))
}

// AuthError is the LOGIN-specific failure for invalid credentials. It is
// distinct from CmdError so callers can route it to a re-authentication
// flow rather than a retry-later flow.
type AuthError struct {
	CmdError
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed: %s (%d)", e.Code, int(e.Code))
}

// ResponseError maps a terminal response to the matching typed error, or
// nil for success. LOGIN failures with the invalid-credentials vendor code
// become AuthError.
func ResponseError(response *protocol.Response) error {
	if response == nil || response.Status != protocol.StatusFailure {
		return nil
	}
	cmdErr := CmdError{Command: response.Command, Code: response.ErrorCode()}
	if response.Command == protocol.CmdLogin && cmdErr.Code == protocol.ErrInvalidLogPass {
		return &AuthError{cmdErr}
	}
	return &cmdErr
}

// IsConnError reports whether err is (or wraps) a socket-level failure.
func IsConnError(err error) bool {
	var connErr *ConnError
	return errors.As(err, &connErr)
}

// IsAuthError reports whether err is (or wraps) an invalid-credentials
// failure.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsCmdError reports whether err is (or wraps) a command failure, and
// returns it for code inspection.
func IsCmdError(err error) (*CmdError, bool) {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return &authErr.CmdError, true
	}
	var cmdErr *CmdError
	if errors.As(err, &cmdErr) {
		return cmdErr, true
	}
	return nil, false
}
