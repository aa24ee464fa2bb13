// Package discovery locates an EFC-01 controller on the local network.
//
// The controller periodically announces itself with a UDP datagram sent to
// multicast group 225.0.0.1 port 20401. The announcement is a regular
// protocol frame with command 0 (NOOP) and status "broadcast"; the
// controller's address is the datagram's source IP, and its TCP command
// port is the default 20400.
//
// Discovery is one-shot and best-effort: join the group, wait for a single
// matching datagram, return the sender's IP. Retry policy belongs to the
// caller.
//
// # Network Requirements
//
// - Multicast support on the local network segment
// - Firewall must allow UDP port 20401
package discovery
