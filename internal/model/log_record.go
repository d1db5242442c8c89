package model

import (
	"encoding/json"
)

// LogRecord is the normalized representation of an emitted event for storage.
// Seq is the sequence number of the committed call; LogIndex orders events within it.
type LogRecord struct {
	Seq       uint64   `json:"seq"`
	Call      string   `json:"call"`
	LogIndex  uint64   `json:"log_index"`
	Address   string   `json:"address"`
	Topics    []string `json:"topics"`
	Data      string   `json:"data"`
	Timestamp uint64   `json:"timestamp"`
}

// MarshalJSON ensures LogRecord is encoded with stable field names.
func (lr LogRecord) MarshalJSON() ([]byte, error) {
	type Alias LogRecord
	return json.Marshal(Alias(lr))
}

// UnmarshalJSON decodes a LogRecord from JSON.
func (lr *LogRecord) UnmarshalJSON(data []byte) error {
	type Alias LogRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*lr = LogRecord(a)
	return nil
}
