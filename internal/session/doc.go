// Package session manages a single TCP connection to an EFC-01 controller.
//
// A Session owns the socket and everything that keeps it healthy: a read
// loop that decodes inbound frames and routes them, a keepalive loop that
// posts NOOP pings when the link goes idle, and a correlator that matches
// response frames to in-flight requests by command code. Exchanges are
// serialized because the controller handles one command at a time; pings
// bypass that lock so a long transfer never starves the keepalive.
//
// Sessions are single-use. Once closed, whether by Disconnect, a socket
// error, or a stalled exchange, a fresh Session must be created. Reconnect
// policy lives in the controller package, not here.
package session
