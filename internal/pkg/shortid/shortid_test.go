package shortid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/huddle/internal/pkg/apperrors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for i := 0; i < 200; i++ {
		id := uuid.New()
		token := Encode(id)
		require.Len(t, token, Length)

		decoded, err := Decode(token)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestEncodeNilAndMaxUUID(t *testing.T) {
	max := uuid.UUID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	for _, id := range []uuid.UUID{uuid.Nil, max} {
		decoded, err := Decode(Encode(id))
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"too short":      "abc",
		"too long":       "AAAAAAAAAAAAAAAAAAAAAAA",
		"bad characters": "!!!!!!!!!!!!!!!!!!!!!!",
		"padding":        "AAAAAAAAAAAAAAAAAAAA==",
		"std alphabet":   "+AAAAAAAAAAAAAAAAAAAA/",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(token)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
		})
	}
}

func TestDecodeAcceptsOnlyCanonicalToken(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	id := uuid.MustParse("6f1c2a8e-4b7d-4c1e-9d8f-2a3b4c5d6e7f")
	token := Encode(id)

	// the last character carries 2 data bits and 4 zero bits; any other low bits alias the same bytes
	last := strings.IndexByte(alphabet, token[Length-1])
	require.GreaterOrEqual(t, last, 0)
	require.Zero(t, last&0x0f)

	for bits := 1; bits <= 0x0f; bits++ {
		alias := token[:Length-1] + string(alphabet[last|bits])
		_, err := Decode(alias)
		require.Error(t, err, alias)
		assert.True(t, apperrors.IsValidation(err))
	}
}
