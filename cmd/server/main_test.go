package main

import (
	"bytes"
	"errors"
	"testing"

	"github.com/damon-houk/currency-exchange-app/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
)

// syncBuffer records whether the logger flushed it
type syncBuffer struct {
	bytes.Buffer
	synced bool
}

func (b *syncBuffer) Sync() error {
	b.synced = true
	return nil
}

func TestExitCode(t *testing.T) {
	t.Run("Run error is logged and flushed", func(t *testing.T) {
		out := &syncBuffer{}
		log := logger.NewJSONLogger(out, logger.InfoLevel)

		code := exitCode(log, errors.New("listen tcp :8080: address already in use"))

		assert.Equal(t, 1, code)
		assert.True(t, out.synced)
		assert.Contains(t, out.String(), "Server stopped with error")
		assert.Contains(t, out.String(), "address already in use")
	})

	t.Run("Clean stop", func(t *testing.T) {
		out := &syncBuffer{}
		log := logger.NewJSONLogger(out, logger.InfoLevel)

		assert.Equal(t, 0, exitCode(log, nil))
		assert.True(t, out.synced)
		assert.Empty(t, out.String())
	})
}
