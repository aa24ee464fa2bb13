// Package channels turns the controller's nested device/state JSON into
// flat channel records and fans out their updates.
//
// A channel is one controllable or observable sub-unit of a device (a relay
// output, one sensor reading). The transformer flattens each device/state
// pair into a record keyed by "<deviceId>-<channel>"; devices without a
// channel concept (transmitters) use the "#" placeholder. The broker
// publishes record updates to subscribers keyed by a typed topic rather
// than concatenated signal-name strings.
package channels
