package sideeffect

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRunReportsSuccess(t *testing.T) {
	ok := Run(context.Background(), zerolog.Nop(), "noop", nil, func(context.Context) error { return nil })
	assert.True(t, ok)
}

func TestRunSwallowsErrorAndLogsFields(t *testing.T) {
	var buf bytes.Buffer
	lgr := zerolog.New(&buf)

	ok := Run(context.Background(), lgr, "notify.invitations", Fields{"eventID": "e-1"}, func(context.Context) error {
		return errors.New("bot was blocked by the user")
	})

	assert.False(t, ok)
	assert.Contains(t, buf.String(), "notify.invitations")
	assert.Contains(t, buf.String(), "e-1")
	assert.Contains(t, buf.String(), "bot was blocked")
}

func TestRunRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	ok := Run(context.Background(), zerolog.New(&buf), "schedule", nil, func(context.Context) error {
		panic("queue client is nil")
	})
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "queue client is nil")
}
