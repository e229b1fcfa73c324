package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/structured-logger/config"
	"github.com/upb/structured-logger/models"
	redisrepo "github.com/upb/structured-logger/repositories/redis"
	"github.com/upb/structured-logger/services/handler"
	"go.uber.org/zap/zaptest"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "test",
		Logging:     config.LoggingConfig{Level: "info", Format: "json", Service: "HR"},
		DataChange: config.DataChangeConfig{
			BookkeepingField: "updated_at",
			NeverRedact:      []string{"id", "created_at", "updated_at"},
		},
		Handler: config.HandlerConfig{
			Level:        "debug",
			Transport:    config.TransportStream,
			StreamTarget: filepath.Join(t.TempDir(), "records.jsonl"),
			TraceHeader:  "X-Trace-Id",
			FlushTimeout: time.Second,
		},
		Auth: config.AuthConfig{DefaultCauserType: "user"},
	}
}

func sampleRecords() []models.StructuredRecord {
	return []models.StructuredRecord{{
		Message:        "hello",
		Level:          "INFO",
		ProcessID:      "p-1",
		ProcessContext: models.ProcessKindRequest,
		Type:           models.CategoryGeneral,
	}}
}

func TestNewDependencies(t *testing.T) {
	t.Run("stream transport to a file", func(t *testing.T) {
		ctx := context.Background()
		cfg := testConfig(t)

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)

		assert.IsType(t, &handler.StreamTransport{}, deps.Transport)
		assert.Nil(t, deps.DB)
		assert.Nil(t, deps.Redis)
		assert.NotNil(t, deps.Causers)
		assert.NotNil(t, deps.StructuredLogging)
		assert.NotNil(t, deps.EmployeeService)
		assert.NotNil(t, deps.Metrics)

		require.NoError(t, deps.Transport.Write(ctx, sampleRecords()))
		require.NoError(t, deps.Close(ctx))

		data, err := os.ReadFile(cfg.Handler.StreamTarget)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), `{"args":"",`))
		assert.Contains(t, string(data), `"process_id":"p-1"`)
	})

	t.Run("redis transport with stream mirror", func(t *testing.T) {
		ctx := context.Background()
		mr := miniredis.RunT(t)

		cfg := testConfig(t)
		cfg.Handler.Transport = config.TransportRedis
		cfg.Handler.MirrorStream = true
		cfg.Redis = config.RedisConfig{Addr: mr.Addr(), ListKey: "logs"}

		deps, err := NewDependencies(ctx, cfg, zaptest.NewLogger(t))
		require.NoError(t, err)
		defer deps.Close(ctx)

		require.NotNil(t, deps.Redis)
		assert.IsType(t, &handler.MultiTransport{}, deps.Transport)

		require.NoError(t, deps.Transport.Write(ctx, sampleRecords()))

		list := redisrepo.NewRecordList(deps.Redis, "logs", zaptest.NewLogger(t))
		stored, err := list.Range(ctx, 0, -1)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "hello", stored[0].Message)

		data, err := os.ReadFile(cfg.Handler.StreamTarget)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"message":"hello"`)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		cfg := testConfig(t)
		cfg.Handler.Transport = config.TransportRedis
		cfg.Redis = config.RedisConfig{Addr: addr, ListKey: "logs"}

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
		assert.Contains(t, err.Error(), "failed to initialize transport")
	})

	t.Run("invalid handler level", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Handler.Level = "verbose"

		deps, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
		assert.Nil(t, deps)
	})

	t.Run("unwritable stream target", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Handler.StreamTarget = filepath.Join(t.TempDir(), "missing", "dir", "records.jsonl")

		_, err := NewDependencies(context.Background(), cfg, zaptest.NewLogger(t))
		assert.Error(t, err)
	})
}

func TestRequestLoggingScope(t *testing.T) {
	changes, sink := RequestLoggingScope(context.Background())
	assert.Nil(t, changes)
	assert.Nil(t, sink)
}

func TestDependencies_EmployeeRedaction(t *testing.T) {
	deps, err := NewDependencies(context.Background(), testConfig(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer deps.Close(context.Background())

	attrs := models.NewAttributes(
		models.Attr("id", int64(1)),
		models.Attr("name", "Rick"),
		models.Attr("ssn", "123"),
		models.Attr("salary", int64(10)),
	)
	assert.ElementsMatch(t, []string{"ssn", "salary"}, deps.EmployeeRedaction.FieldsFor(attrs))
}
