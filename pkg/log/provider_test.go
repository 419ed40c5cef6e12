package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seederrors "github.com/YuminosukeSato/seedtune/pkg/errors"
)

func decodeLines(t *testing.T, s string) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(s), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestZerologProvider_Fields(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelDebug)

	logger := p.GetLoggerWithName("model_selection").With(ModelNameKey, "mlp")
	logger.Info("configuration scored", ConfigKey, 4, MetricKey, "roc_auc", ScoreKey, 0.93)

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	assert.Equal(t, "model_selection", lines[0][ComponentKey])
	assert.Equal(t, "mlp", lines[0][ModelNameKey])
	assert.Equal(t, "roc_auc", lines[0][MetricKey])
	assert.Equal(t, 0.93, lines[0][ScoreKey])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "configuration scored", lines[0]["message"])
}

func TestZerologProvider_ErrorField(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelInfo)

	err := seederrors.NewValueError("Load", "bad row")
	p.GetLogger().Error("load failed", err, SourceKey, "seeds.tsv")

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 1)
	assert.Equal(t, err.Error(), lines[0][ErrAttrKey])
	assert.Equal(t, "seeds.tsv", lines[0][SourceKey])
}

func TestZerologProvider_ErrorKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"fit", seederrors.NewFitError("knn", 2, 3, seederrors.New("degenerate")), "fit"},
		{"cancelled fold", seederrors.NewFitError("mlp", 0, 1, context.Canceled), "cancelled"},
		{"data", seederrors.NewDataError("seeds.tsv", 4, "area", "not a number"), "data"},
		{"validation", seederrors.NewValidationError("folds", "must be at least 2", 1), "validation"},
		{"panic", seederrors.NewPanicError("fold fit", "boom"), "panic"},
		{"plain", seederrors.New("plain"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewZerologProvider(&buf, LevelInfo).GetLogger().Warn("fold failed", tt.err)

			lines := decodeLines(t, buf.String())
			require.Len(t, lines, 1)
			if tt.want == "" {
				assert.NotContains(t, lines[0], ErrorTypeKey)
				return
			}
			assert.Equal(t, tt.want, lines[0][ErrorTypeKey])
		})
	}
}

func TestErrFmtHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WrapByErrFmtHandler(slog.NewJSONHandler(&buf, nil)))

	err := seederrors.NewFitError("knn", 0, 2, seederrors.New("degenerate"))
	logger.Warn("fold failed", ErrAttr(err), slog.Int(FoldKey, 2))
	logger.Info("fold scored", slog.Int(FoldKey, 3))

	lines := decodeLines(t, buf.String())
	require.Len(t, lines, 2)
	assert.Equal(t, "fit", lines[0][ErrorTypeKey])
	assert.NotContains(t, lines[1], ErrorTypeKey)
	assert.NotContains(t, lines[1], StacktraceAttrKey)
}

func TestZerologProvider_Level(t *testing.T) {
	var buf bytes.Buffer
	p := NewZerologProvider(&buf, LevelWarn)
	logger := p.GetLogger()

	assert.False(t, logger.Enabled(context.Background(), LevelInfo))
	assert.True(t, logger.Enabled(context.Background(), LevelError))

	logger.Info("dropped")
	assert.Empty(t, buf.String())

	p.SetLevel(LevelDebug)
	p.GetLogger().Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"", LevelInfo, false},
		{"debug", LevelDebug, false},
		{"WARN", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				var ve *seederrors.ValidationError
				assert.ErrorAs(t, err, &ve)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetup_FileAndWarnings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "logs", "seedtune.log")
	var console bytes.Buffer

	closer, err := Setup(Options{Level: "info", File: file, Stderr: &console})
	require.NoError(t, err)
	defer func() {
		seederrors.SetZerologWarnFunc(nil)
		SetProvider(NewZerologProvider(discard{}, LevelInfo))
	}()

	GetLoggerWithName("workflow").Info("run started", RunIDKey, "abc")
	seederrors.Warn(seederrors.NewConvergenceWarning("MLPClassifier", 100, ""))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run.id":"abc"`)
	assert.Contains(t, string(data), `"type":"ConvergenceWarning"`)
	assert.Equal(t, string(data), console.String())
}

func TestSetup_InvalidLevel(t *testing.T) {
	_, err := Setup(Options{Level: "loud"})
	assert.Error(t, err)
}
