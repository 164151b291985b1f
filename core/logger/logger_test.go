package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fitqueue/core/logger"
)

type ctxKey struct{}

func TestNew_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithAttr(slog.String("service", "fitqueue")),
	)

	log.Info("job completed", logger.Queue("ai"), logger.JobType("generate-workout"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "job completed", record["msg"])
	assert.Equal(t, "ai", record["queue"])
	assert.Equal(t, "generate-workout", record["job_type"])
	assert.Equal(t, "fitqueue", record["service"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevelString("warn"))

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_ContextExtractor(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithJSONFormatter(),
		logger.WithOutput(&buf),
		logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
			v, ok := ctx.Value(ctxKey{}).(string)
			if !ok {
				return slog.Attr{}, false
			}
			return logger.UserID(v), true
		}),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "user-1")
	log.InfoContext(ctx, "hello")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "user-1", record["user_id"])
}

func TestAttributes(t *testing.T) {
	t.Parallel()

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		attr := logger.Error(errors.New("boom"))
		assert.Equal(t, "error", attr.Key)
		assert.Equal(t, "boom", attr.Value.String())
		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	})

	t.Run("optional ids", func(t *testing.T) {
		t.Parallel()
		assert.True(t, logger.JobID("").Equal(slog.Attr{}))
		assert.True(t, logger.UserID("").Equal(slog.Attr{}))
		assert.Equal(t, "job_id", logger.JobID("42").Key)
	})

	t.Run("attempt group", func(t *testing.T) {
		t.Parallel()
		attr := logger.Attempt(2, 3)
		require.Equal(t, slog.KindGroup, attr.Value.Kind())
		g := attr.Value.Group()
		require.Len(t, g, 2)
		assert.Equal(t, int64(2), g[0].Value.Int64())
		assert.Equal(t, int64(3), g[1].Value.Int64())
	})

	t.Run("duration", func(t *testing.T) {
		t.Parallel()
		attr := logger.Duration(time.Second)
		assert.Equal(t, "duration", attr.Key)
		assert.Equal(t, time.Second, attr.Value.Duration())
	})
}
