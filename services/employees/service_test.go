package employees

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/repositories/memory"
	"github.com/upb/structured-logger/services"
	"github.com/upb/structured-logger/services/datachange"
	"github.com/upb/structured-logger/services/redaction"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggedRecord struct {
	level   zapcore.Level
	message string
	context map[string]any
}

type recordingSink struct {
	mu      sync.Mutex
	records []loggedRecord
}

func (s *recordingSink) Log(level zapcore.Level, message string, context map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, loggedRecord{level: level, message: message, context: context})
}

func (s *recordingSink) messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.message)
	}
	return out
}

func (s *recordingSink) last() loggedRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[len(s.records)-1]
}

func newTestService(t *testing.T) (*Service, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	changes := datachange.NewService(sink, zap.NewNop())
	policy := redaction.NewPolicy(redaction.WithAlways("ssn", "salary"))

	svc := NewService(memory.NewEmployeeRepository(), policy, func(context.Context) (*datachange.Service, datachange.Sink) {
		return changes, sink
	}, zap.NewNop())

	clock := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, sink
}

func changedAttributes(t *testing.T, rec loggedRecord) *models.Attributes {
	t.Helper()
	entry, ok := rec.context[string(models.CategoryDataChanged)].(map[string]any)
	require.True(t, ok)
	attrs, ok := entry[models.DataChangeKeyChangedAttributes].(*models.Attributes)
	require.True(t, ok)
	return attrs
}

func TestService_Hire(t *testing.T) {
	ctx := context.Background()
	svc, sink := newTestService(t)

	employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com", SSN: "123-45-6789", Salary: 1000})
	require.NoError(t, err)
	assert.Equal(t, int64(1), employee.ID)

	assert.Equal(t, []string{models.MessageDataCreated, MessageEmployeeHired}, sink.messages())

	created := sink.records[0]
	entry := created.context[string(models.CategoryDataChanged)].(map[string]any)
	attrs := entry[models.DataChangeKeyAttributes].(*models.Attributes)
	ssn, _ := attrs.Get("ssn")
	salary, _ := attrs.Get("salary")
	name, _ := attrs.Get("name")
	assert.Equal(t, redaction.Sentinel, ssn)
	assert.Equal(t, redaction.Sentinel, salary)
	assert.Equal(t, "Rick", name)

	action := sink.last().context[string(models.CategoryAction)].(map[string]any)
	assert.Equal(t, "hire", action["name"])
	assert.Equal(t, int64(1), action["employee_id"])

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := svc.Hire(ctx, HireInput{Name: "Other", Email: "rick@example.com"})
		assert.True(t, services.IsConflictError(err))
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("logs changed fields only", func(t *testing.T) {
		svc, sink := newTestService(t)
		employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com", Title: "Scientist"})
		require.NoError(t, err)

		title := "Grandpa"
		updated, err := svc.Update(ctx, employee.ID, UpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Grandpa", updated.Title)

		rec := sink.last()
		assert.Equal(t, models.MessageDataUpdated, rec.message)
		assert.Equal(t, []string{"title", "updated_at"}, changedAttributes(t, rec).Keys())
	})

	t.Run("redacts changed sensitive fields", func(t *testing.T) {
		svc, sink := newTestService(t)
		employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com", Salary: 10})
		require.NoError(t, err)

		salary := int64(20)
		_, err = svc.Update(ctx, employee.ID, UpdateInput{Salary: &salary})
		require.NoError(t, err)

		value, _ := changedAttributes(t, sink.last()).Get("salary")
		assert.Equal(t, redaction.Sentinel, value)
	})

	t.Run("touch only update is not logged", func(t *testing.T) {
		svc, sink := newTestService(t)
		employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com"})
		require.NoError(t, err)
		before := len(sink.messages())

		name := "Rick"
		_, err = svc.Update(ctx, employee.ID, UpdateInput{Name: &name})
		require.NoError(t, err)

		assert.Len(t, sink.messages(), before)
	})

	t.Run("unknown employee", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Update(ctx, 42, UpdateInput{})
		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("email taken by another employee", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com"})
		require.NoError(t, err)
		morty, err := svc.Hire(ctx, HireInput{Name: "Morty", Email: "morty@example.com"})
		require.NoError(t, err)

		email := "rick@example.com"
		_, err = svc.Update(ctx, morty.ID, UpdateInput{Email: &email})
		assert.True(t, services.IsConflictError(err))
	})
}

func TestService_Terminate(t *testing.T) {
	ctx := context.Background()
	svc, sink := newTestService(t)

	employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Terminate(ctx, employee.ID))
	messages := sink.messages()
	assert.Equal(t, []string{models.MessageDataDeleted, MessageEmployeeTerminated}, messages[len(messages)-2:])

	_, err = svc.Get(ctx, employee.ID)
	assert.True(t, services.IsNotFoundError(err))
	assert.True(t, services.IsNotFoundError(svc.Terminate(ctx, employee.ID)))
}

func TestService_WithoutLoggingScope(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.NewEmployeeRepository(), nil, func(context.Context) (*datachange.Service, datachange.Sink) {
		return nil, nil
	}, zap.NewNop())

	employee, err := svc.Hire(ctx, HireInput{Name: "Rick", Email: "rick@example.com"})
	require.NoError(t, err)

	employees, err := svc.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, employees, 1)
	assert.NoError(t, svc.Terminate(ctx, employee.ID))
}
