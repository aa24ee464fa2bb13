package protocol

// Status is the response status string reported by the controller.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusSearching    Status = "searching"
	StatusFailure      Status = "failure"
	StatusPartial      Status = "partial"
	StatusNotification Status = "notification"
	StatusBroadcast    Status = "broadcast"
	StatusValidation   Status = "validation"
	StatusProgress     Status = "progress"
)

var knownStatuses = map[Status]struct{}{
	StatusSuccess:      {},
	StatusSearching:    {},
	StatusFailure:      {},
	StatusPartial:      {},
	StatusNotification: {},
	StatusBroadcast:    {},
	StatusValidation:   {},
	StatusProgress:     {},
}

// Valid reports whether s is a status this client understands.
func (s Status) Valid() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Terminal reports whether s ends a correlated request/response exchange.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailure
}

// Accumulation reports whether s extends a correlated exchange with an
// additional data fragment (multi-frame transfers such as device searches
// or backup downloads).
func (s Status) Accumulation() bool {
	return s == StatusSearching || s == StatusPartial || s == StatusProgress
}
