// Package protocol implements the EFC-01 controller wire protocol: the
// command, status and error-code catalogs, request/response envelopes and
// the ETX-delimited JSON framing codec.
//
// # Wire Format
//
// Every frame is a single JSON object terminated by one ETX byte (0x03),
// with no length prefix:
//
//	{"command": 1, "data": {"login": "user", "password": "secret"}}<ETX>
//
// Responses carry a status string alongside the command:
//
//	{"command": 37, "status": "success", "data": {...}}<ETX>
//
// A logical reply may span multiple frames: "searching", "partial" and
// "progress" frames each contribute a payload fragment, and a terminal
// "success" or "failure" frame closes the exchange. "notification" frames
// are unsolicited state pushes and never belong to an exchange.
//
// # Decoding
//
// Decode validates command codes and status strings against the catalogs;
// unknown values yield a DecodeError. Decode errors are frame-local: the
// ETX delimiter preserves stream position, so the caller drops the frame
// and keeps reading.
package protocol
