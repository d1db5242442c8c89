package model

// TypedEvent is a decoded event log.
type TypedEvent struct {
	Seq       uint64      `json:"seq"`
	Call      string      `json:"call"`
	LogIndex  uint64      `json:"log_index"`
	Address   string      `json:"address"`
	EventName string      `json:"event_name"`
	Timestamp uint64      `json:"timestamp"`
	Decoded   interface{} `json:"decoded"`
}
