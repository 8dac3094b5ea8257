package protocol

import (
	"encoding/base64"
	"fmt"
	"strconv"
)

// EncodeCursor turns a slice offset into an opaque pagination cursor:
// base64 of the decimal offset, per the "opaque cursors" design note —
// trivially stable across identical catalogs, cheap to range-check.
func EncodeCursor(offset int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(offset)))
}

// DecodeCursor reverses EncodeCursor, rejecting malformed or out-of-range
// cursors with an error the caller should surface as 'invalid params'.
func DecodeCursor(cursor string, catalogSize int) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("malformed cursor: %w", err)
	}
	offset, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, fmt.Errorf("malformed cursor: %w", err)
	}
	if offset < 0 || offset > catalogSize {
		return 0, fmt.Errorf("cursor out of range")
	}
	return offset, nil
}

// PaginateOffsets returns the end index (capped at total) of the page of at
// most pageSize items starting at offset, and the cursor for the next page
// (empty if exhausted).
func PaginateOffsets(total, offset, pageSize int) (end int, nextCursor string) {
	end = offset + pageSize
	if end > total {
		end = total
	}
	if end < total {
		nextCursor = EncodeCursor(end)
	}
	return end, nextCursor
}
