// Package sideeffect runs network side effects (message delivery, job scheduling) that must
// never fail the operation that triggered them.
package sideeffect

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Fields are attached to the log line when the side effect fails
type Fields map[string]interface{}

// Run executes fn and swallows its error or panic after logging it under op.
// It reports whether fn succeeded.
func Run(ctx context.Context, lgr zerolog.Logger, op string, fields Fields, fn func(ctx context.Context) error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			event := lgr.Error().Str("op", op).Str("panic", fmt.Sprint(r))
			for k, v := range fields {
				event = event.Interface(k, v)
			}
			event.Msg("Side effect panicked")
			ok = false
		}
	}()

	if err := fn(ctx); err != nil {
		event := lgr.Warn().Err(err).Str("op", op)
		for k, v := range fields {
			event = event.Interface(k, v)
		}
		event.Msg("Side effect failed")
		return false
	}
	return true
}
