package store

import (
	"fmt"

	"github.com/google/orderedcode"
)

// key prefixes. The order prefix must sort before the others so the order
// range is contiguous.
const (
	prefixOrder    = int64(0)
	prefixSequence = int64(1)
	prefixAppState = int64(2)
)

func orderKey(id uint64) []byte {
	key, err := orderedcode.Append(nil, prefixOrder, id)
	if err != nil {
		panic(err)
	}
	return key
}

// orderRangeEnd is the exclusive upper bound of all order keys.
func orderRangeEnd() []byte {
	key, err := orderedcode.Append(nil, prefixOrder+1)
	if err != nil {
		panic(err)
	}
	return key
}

func decodeOrderKey(key []byte) (id uint64, err error) {
	var prefix int64
	remaining, err := orderedcode.Parse(string(key), &prefix, &id)
	if err != nil {
		return 0, err
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected complete key but got remainder: %s", remaining)
	}
	if prefix != prefixOrder {
		return 0, fmt.Errorf("incorrect prefix. Expected %v, got %v", prefixOrder, prefix)
	}
	return id, nil
}

func sequenceKey() []byte {
	key, err := orderedcode.Append(nil, prefixSequence)
	if err != nil {
		panic(err)
	}
	return key
}

func appStateKey() []byte {
	key, err := orderedcode.Append(nil, prefixAppState)
	if err != nil {
		panic(err)
	}
	return key
}

func encodeSequence(next uint64) []byte {
	bz, err := orderedcode.Append(nil, next)
	if err != nil {
		panic(err)
	}
	return bz
}

func decodeSequence(bz []byte) (uint64, error) {
	var next uint64
	remaining, err := orderedcode.Parse(string(bz), &next)
	if err != nil {
		return 0, err
	}
	if len(remaining) != 0 {
		return 0, fmt.Errorf("expected complete sequence but got remainder: %s", remaining)
	}
	return next, nil
}
