package log

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTestLogger_Levels(t *testing.T) {
	logger, buffer := NewTestLogger(LevelDebug)

	logger.Debug("debug message", "key1", "value1", "number", 42)
	logger.Info("info message", OperationKey, OperationFit)
	logger.Warn("warning message", ErrorCodeKey, ErrorConvergence)
	logger.Error("error message", fmt.Errorf("fold failed"), FoldKey, 3)

	require.NotEmpty(t, buffer.String())
	for _, msg := range []string{"debug message", "info message", "warning message", "error message"} {
		assert.True(t, logger.ContainsMessage(msg), msg)
	}
	assert.True(t, logger.ContainsField("key1", "value1"))
	assert.True(t, logger.ContainsField("number", 42))
	assert.True(t, logger.ContainsField(ErrAttrKey, "fold failed"))
	assert.True(t, logger.ContainsField(FoldKey, 3))
}

func TestTestLogger_With(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	child := logger.With(ModelNameKey, "knn", RunIDKey, "run-1")
	child.Info("fold scored", FoldKey, 1)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "knn", entries[0][ModelNameKey])
	assert.Equal(t, "run-1", entries[0][RunIDKey])
	assert.Equal(t, "INFO", entries[0]["level"])
}

func TestTestLogger_Enabled(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	ctx := context.Background()

	assert.True(t, logger.Enabled(ctx, LevelInfo))
	assert.True(t, logger.Enabled(ctx, LevelError))
	assert.False(t, logger.Enabled(ctx, LevelDebug))

	logger.Debug("hidden")
	logger.Info("shown")
	assert.False(t, logger.ContainsMessage("hidden"))
	assert.True(t, logger.ContainsMessage("shown"))

	logger.Clear()
	assert.False(t, logger.ContainsMessage("shown"))
}

func TestTestLogger_Concurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)
	child := logger.With(ComponentKey, "pool")

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				child.Info("unit done", WorkersKey, w, ConfigKey, i)
			}
		}(w)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 200)
}

func TestTestLoggerProvider(t *testing.T) {
	p, captured := NewTestLoggerProvider(LevelDebug)
	SetProvider(p)
	defer SetProvider(NewZerologProvider(discard{}, LevelInfo))

	GetLoggerWithName("dataset").Info("loaded", SamplesKey, 210)

	assert.True(t, captured.ContainsField(ComponentKey, "dataset"))
	assert.True(t, captured.ContainsField(SamplesKey, 210))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
