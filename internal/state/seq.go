package state

import (
	"context"
	"encoding/binary"
	"fmt"
)

// NextSeq stages and returns the next committed-call sequence number.
func NextSeq(ctx context.Context, store Store) (uint64, error) {
	data, ok, err := store.Get(ctx, SeqKey())
	if err != nil {
		return 0, fmt.Errorf("read seq: %w", err)
	}
	var last uint64
	if ok {
		if len(data) != 8 {
			return 0, fmt.Errorf("%w: seq length %d", ErrCorrupt, len(data))
		}
		last = binary.BigEndian.Uint64(data)
	}

	next := last + 1
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], next)
	store.Put(SeqKey(), buf[:])
	return next, nil
}
