package aggregate

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/holiman/uint256"

	"poolLedger/internal/model"
)

func parseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return new(uint256.Int), nil
	}
	parsed, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return parsed, nil
}

func orderedPair(x, y model.AssetID) (model.AssetID, model.AssetID) {
	if y < x {
		return y, x
	}
	return x, y
}

func unixTime(ts uint64) time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func poolKey(address string) string {
	return strings.ToLower(address)
}

func sortMetrics(metrics []model.PoolWindowMetrics) {
	sort.SliceStable(metrics, func(i, j int) bool {
		if !metrics[i].WindowStart.Equal(metrics[j].WindowStart) {
			return metrics[i].WindowStart.Before(metrics[j].WindowStart)
		}
		return metrics[i].PoolAddress < metrics[j].PoolAddress
	})
}
