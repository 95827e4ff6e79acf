package utils

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKillProcessTreeIgnoresMissingProcess(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.NoError(t, KillProcessTree(logger, 0))
	assert.NoError(t, KillProcessTree(logger, 1<<22+7))
}
