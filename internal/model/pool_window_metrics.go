package model

import "time"

// PoolWindowMetrics stores aggregated activity for a pool window.
// Asset0 is the lower asset id of the pair; Volume* sums swap inputs per asset
// and Output* sums swap outputs per asset.
type PoolWindowMetrics struct {
	PoolAddress    string    `json:"pool_address"`
	WindowSizeSecs int64     `json:"window_size_seconds"`
	WindowStart    time.Time `json:"window_start"`
	WindowEnd      time.Time `json:"window_end"`
	Asset0         AssetID   `json:"asset0"`
	Asset1         AssetID   `json:"asset1"`
	SwapCount      uint64    `json:"swap_count"`
	DepositCount   uint64    `json:"deposit_count"`
	WithdrawCount  uint64    `json:"withdraw_count"`
	Volume0        string    `json:"volume0"`
	Volume1        string    `json:"volume1"`
	Output0        string    `json:"output0"`
	Output1        string    `json:"output1"`
}
