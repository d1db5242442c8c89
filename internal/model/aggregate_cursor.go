package model

// AggregateCursor marks aggregation progress. Every event with seq at or
// below Seq sits in a window that closed before WindowStart; the window at
// WindowStart is rebuilt from scratch on the next run.
type AggregateCursor struct {
	Seq         uint64 `json:"seq"`
	WindowStart uint64 `json:"window_start"`
}
