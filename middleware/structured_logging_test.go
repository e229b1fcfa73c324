package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/structured-logger/models"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func newTestMiddleware(transport *recordingTransport) *StructuredLogging {
	return NewStructuredLogging(transport, zap.NewNop(), nil, StructuredLoggingConfig{
		Level:            zapcore.InfoLevel,
		Environment:      "testing",
		Service:          "HR",
		BookkeepingField: "updated_at",
	})
}

func TestStructuredLogging_FlushesRecordsWithRequestContext(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		changes := GetDataChangesFromContext(r.Context())
		require.NotNil(t, changes)

		snapshot := models.NewSnapshot(7, "employee", models.NewAttributes(models.Attr("name", "Rick")))
		require.NoError(t, changes.RecordCreated(snapshot))

		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest(http.MethodPost, "http://hr.example.com/api/v1/employees?notify=true", nil)
	req.RemoteAddr = "10.0.0.1:52100"
	w := httptest.NewRecorder()

	mw.Handler(next).ServeHTTP(w, req)

	records := transport.Records()
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, models.MessageDataCreated, rec.Message)
	assert.Equal(t, models.CategoryDataChanged, rec.Type)
	assert.Equal(t, "7", rec.DataID)
	assert.Equal(t, http.StatusCreated, rec.StatusCode)
	assert.Equal(t, "POST", rec.RequestMethod)
	assert.Equal(t, "http://hr.example.com/api/v1/employees", rec.RequestURL)
	assert.Equal(t, "notify=true", rec.RequestQuery)
	assert.Equal(t, "10.0.0.1", rec.RemoteAddress)
	assert.Equal(t, models.ProcessKindRequest, rec.ProcessContext)
	assert.Equal(t, "HR", rec.Service)
	require.NotNil(t, rec.Env)
	assert.Equal(t, "testing", *rec.Env)
	assert.NotNil(t, rec.Delta)
	assert.NotNil(t, rec.ProcessStart)
	assert.Equal(t, w.Header().Get("X-Trace-Id"), rec.ProcessID)
	_, err := uuid.Parse(rec.ProcessID)
	assert.NoError(t, err)
}

func TestStructuredLogging_TraceHeaderWins(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetBatchFromContext(r.Context()).Log(zapcore.InfoLevel, "hello", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Trace-Id", "my-trace-id")
	w := httptest.NewRecorder()

	mw.Handler(next).ServeHTTP(w, req)

	records := transport.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "my-trace-id", records[0].ProcessID)
	assert.Equal(t, "my-trace-id", w.Header().Get("X-Trace-Id"))
	assert.Equal(t, http.StatusOK, records[0].StatusCode)
}

func TestStructuredLogging_SpanTraceID(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)

	traceID := trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36}
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, traceID.String(), GetProcessIDFromContext(r.Context()))
		GetBatchFromContext(r.Context()).Log(zapcore.InfoLevel, "hello", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))

	mw.Handler(next).ServeHTTP(httptest.NewRecorder(), req)

	records := transport.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", records[0].ProcessID)
}

func TestStructuredLogging_LevelThreshold(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		batch := GetBatchFromContext(r.Context())
		batch.Log(zapcore.DebugLevel, "noise", nil)
		batch.Log(zapcore.WarnLevel, "signal", nil)
	})

	mw.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	records := transport.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "signal", records[0].Message)
	assert.Equal(t, "WARN", records[0].Level)
}

func TestStructuredLogging_FlushesOnPanic(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetBatchFromContext(r.Context()).Log(zapcore.ErrorLevel, "about to fail", nil)
		panic("boom")
	})

	assert.Panics(t, func() {
		mw.Handler(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})

	records := transport.Records()
	require.Len(t, records, 1)
	assert.Equal(t, http.StatusInternalServerError, records[0].StatusCode)
}

func TestStructuredLogging_TransportFailureDoesNotBreakResponse(t *testing.T) {
	transport := &recordingTransport{err: errors.New("down")}
	mw := newTestMiddleware(transport)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetBatchFromContext(r.Context()).Log(zapcore.InfoLevel, "hello", nil)
		w.WriteHeader(http.StatusAccepted)
	})

	w := httptest.NewRecorder()
	mw.Handler(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Empty(t, transport.Records())
}

func TestStructuredLogging_WithCauser(t *testing.T) {
	transport := &recordingTransport{}
	mw := newTestMiddleware(transport)
	causers := NewCauserMiddleware(testSecret, "user", zap.NewNop())

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GetBatchFromContext(r.Context()).Log(zapcore.InfoLevel, "hello", nil)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, "42", "", "99"))

	causers.Handler(mw.Handler(next)).ServeHTTP(httptest.NewRecorder(), req)

	records := transport.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "42", records[0].CauserID)
	assert.Equal(t, "user", records[0].CauserType)
	assert.Equal(t, "99", records[0].Impersonator)
}
