package channels

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/extago/extalife/internal/protocol"
)

// DummyChannel is the placeholder channel token for devices that have no
// per-channel addressing, such as transmitters.
const DummyChannel = "#"

// Record is one flattened channel: a composite identifier plus the merged
// device and state attributes.
type Record struct {
	ID   string
	Data protocol.Data
}

// Transform flattens fetch-response fragments into channel records.
//
// Each fragment carries a "devices" list; each device carries a nested
// "state" list. Every device/state pair yields one record whose data is the
// shallow merge of the state fields over the device fields (state wins on
// collision). When dummyChannel is set, state entries without a channel
// number get the "#" placeholder in the record id.
//
// Devices flagged exta_free_device speak the legacy Exta Free protocol and
// share raw type codes with the newer catalog; their type is remapped by
// the vendor's +300 offset before merging, the same disambiguation the
// official app applies.
func Transform(fragments []protocol.Data, dummyChannel bool) []Record {
	var records []Record
	for _, fragment := range fragments {
		devices, ok := fragment["devices"].([]any)
		if !ok {
			continue
		}
		for _, entry := range devices {
			device, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			records = append(records, transformDevice(device, dummyChannel)...)
		}
	}
	return records
}

func transformDevice(device protocol.Data, dummyChannel bool) []Record {
	states, ok := device["state"].([]any)
	if !ok {
		return nil
	}

	base := make(protocol.Data, len(device))
	for k, v := range device {
		if k == "state" {
			continue
		}
		base[k] = v
	}

	if isExtaFree(device, states) {
		if offset, ok := extaFreeType(states); ok {
			base["type"] = offset + protocol.ExtaFreeTypeOffset
		}
	}

	var records []Record
	for _, entry := range states {
		state, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		data := make(protocol.Data, len(base)+len(state))
		for k, v := range base {
			data[k] = v
		}
		for k, v := range state {
			data[k] = v
		}

		records = append(records, Record{
			ID:   recordID(device["id"], state["channel"], dummyChannel),
			Data: data,
		})
	}
	return records
}

// isExtaFree checks the legacy-protocol flag on the device, falling back to
// the state entries (firmware versions differ on where they put it).
func isExtaFree(device protocol.Data, states []any) bool {
	if flag, ok := device["exta_free_device"].(bool); ok {
		return flag
	}
	for _, entry := range states {
		if state, ok := entry.(map[string]any); ok {
			if flag, ok := state["exta_free_device"].(bool); ok && flag {
				return true
			}
		}
	}
	return false
}

func extaFreeType(states []any) (int, bool) {
	for _, entry := range states {
		state, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if raw, present := state["exta_free_type"]; present {
			if n, ok := toInt(raw); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func recordID(deviceID, channel any, dummyChannel bool) string {
	return fmt.Sprintf("%s-%s", formatField(deviceID), channelToken(channel, dummyChannel))
}

// NotificationID derives the channel record id a notification payload
// refers to. Notifications without a channel number address the device's
// placeholder channel.
func NotificationID(data protocol.Data) string {
	return recordID(data["id"], data["channel"], true)
}

// SplitID splits a channel record id back into its device id and channel
// token.
func SplitID(id string) (deviceID int, channel string, err error) {
	for i := 0; i < len(id); i++ {
		if id[i] == '-' {
			deviceID, convErr := strconv.Atoi(id[:i])
			if convErr != nil || i == len(id)-1 {
				return 0, "", fmt.Errorf("malformed channel id %q", id)
			}
			return deviceID, id[i+1:], nil
		}
	}
	return 0, "", fmt.Errorf("malformed channel id %q", id)
}

func channelToken(channel any, dummyChannel bool) string {
	if channel == nil {
		if dummyChannel {
			return DummyChannel
		}
		return ""
	}
	return formatField(channel)
}

// formatField renders a JSON scalar the way the official app renders it in
// identifiers: numbers without a decimal point, everything else verbatim.
func formatField(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		if value == float64(int64(value)) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case json.Number:
		return value.String()
	default:
		return fmt.Sprintf("%v", value)
	}
}

func toInt(v any) (int, bool) {
	switch value := v.(type) {
	case float64:
		return int(value), true
	case int:
		return value, true
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n), true
		}
	case string:
		if n, err := strconv.Atoi(value); err == nil {
			return n, true
		}
	}
	return 0, false
}
