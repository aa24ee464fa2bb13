// Package tui implements the interactive channel monitor: a live terminal
// dashboard showing every channel of a connected controller, updating in
// place as notifications arrive on the socket.
package tui
