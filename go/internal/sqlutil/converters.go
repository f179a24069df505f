package sqlutil

import (
	"encoding/json"

	"github.com/sqlc-dev/pqtype"
)

// Helper functions for converting between Go types and nullable column types

// ToNullRawMessage converts a JSON document to pqtype.NullRawMessage.
// Empty and literal null documents are stored as SQL NULL.
func ToNullRawMessage(val json.RawMessage) pqtype.NullRawMessage {
	if len(val) == 0 || string(val) == "null" {
		return pqtype.NullRawMessage{Valid: false}
	}
	return pqtype.NullRawMessage{RawMessage: val, Valid: true}
}

// FromNullRawMessage converts pqtype.NullRawMessage to a JSON document,
// returning nil for SQL NULL
func FromNullRawMessage(val pqtype.NullRawMessage) json.RawMessage {
	if !val.Valid {
		return nil
	}
	return val.RawMessage
}

// ToLimit converts a row limit to int32, using fallback for non-positive
// values and capping at max
func ToLimit(val, fallback, max int) int32 {
	if val <= 0 {
		val = fallback
	}
	if val > max {
		val = max
	}
	return int32(val)
}
