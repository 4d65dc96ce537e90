package domain

// StreamEvent is one frame of the multiplexed observer feed: every domain
// event appended to the log is republished as {id, kind, data}.
type StreamEvent struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	Data any    `json:"data"`
}
