package model

import "encoding/json"

// TypedEventRecord is the JSON representation used for aggregation.
type TypedEventRecord struct {
	Seq       uint64          `json:"seq"`
	Call      string          `json:"call"`
	LogIndex  uint64          `json:"log_index"`
	Address   string          `json:"address"`
	EventName string          `json:"event_name"`
	Timestamp uint64          `json:"timestamp"`
	Decoded   json.RawMessage `json:"decoded"`
}
