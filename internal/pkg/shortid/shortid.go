// Package shortid packs UUIDs into 22-character tokens so that two of them fit into a
// Telegram callback payload (64 bytes).
package shortid

import (
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

// Length of an encoded token
const Length = 22

var encoding = base64.RawURLEncoding.Strict()

// Encode returns the URL-safe, unpadded base64 form of the 16 raw UUID bytes.
func Encode(id uuid.UUID) string {
	return encoding.EncodeToString(id[:])
}

// Decode reverses Encode. Anything that is not exactly 22 valid characters decoding to
// 16 bytes yields a validation error.
func Decode(token string) (uuid.UUID, error) {
	if len(token) != Length {
		return uuid.Nil, apperrors.NewValidationError("malformed short id")
	}
	raw, err := encoding.DecodeString(token)
	if err != nil || len(raw) != 16 {
		return uuid.Nil, apperrors.NewValidationError("malformed short id")
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("malformed short id")
	}
	return id, nil
}
