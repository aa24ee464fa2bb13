// Package controller is the public facade over an EFC-01 gateway: connect
// and authenticate (with multicast discovery as a fallback for stale
// addresses), fetch normalized channel lists, execute device actions, and
// run the reconnect state machine that keeps a lost connection coming back.
//
// One Client wraps one controller. The Manager tracks clients by MAC for
// hosts that talk to several controllers at once.
package controller
