package datachange

import (
	"errors"

	"github.com/upb/structured-logger/internal/observability"
	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/services"
	"github.com/upb/structured-logger/services/redaction"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultBookkeepingField is the timestamp field whose lone change does not produce an update record
const DefaultBookkeepingField = "updated_at"

// Service emits data change records for entity lifecycle events.
// Attribute values are redacted before they reach the sink.
type Service struct {
	sink             Sink
	logger           *zap.Logger
	metrics          *observability.Metrics
	bookkeepingField string
}

// Option configures a Service
type Option func(*Service)

// WithBookkeepingField sets the field whose lone change suppresses an update record.
// An empty name disables suppression.
func WithBookkeepingField(field string) Option {
	return func(s *Service) {
		s.bookkeepingField = field
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService creates a new data change logging service
func NewService(sink Sink, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		sink:             sink,
		logger:           logger,
		bookkeepingField: DefaultBookkeepingField,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordCreated emits a "Data Created" record with the redacted attributes of entity
func (s *Service) RecordCreated(entity models.Loggable) error {
	attrs, err := entity.LoggingAttributes()
	if err != nil {
		return s.fail(entity, models.ChangeCreated, err)
	}

	event := models.NewCreatedEvent(
		entity.LoggingID(),
		entity.LoggingType(),
		redaction.Obfuscate(attrs, entity.RedactFields()),
	)
	s.emit(event)
	return nil
}

// RecordUpdated emits a "Data Updated" record with the redacted original and
// changed values of the changed fields. An update that only touched the
// bookkeeping field emits nothing.
func (s *Service) RecordUpdated(entity models.Loggable) error {
	changed, err := entity.ChangedAttributes()
	if err != nil {
		return s.fail(entity, models.ChangeUpdated, err)
	}

	if s.onlyBookkeeping(changed) {
		s.metrics.IncUpdateSuppressed()
		s.logger.Debug("suppressed bookkeeping-only update",
			zap.String("data_type", entity.LoggingType()),
			zap.String("data_id", entity.LoggingID()))
		return nil
	}

	original, err := entity.OriginalAttributes()
	if err != nil {
		return s.fail(entity, models.ChangeUpdated, err)
	}
	if err := sameKeys(original, changed); err != nil {
		return s.fail(entity, models.ChangeUpdated, err)
	}

	fields := entity.RedactFields()
	event := models.NewUpdatedEvent(
		entity.LoggingID(),
		entity.LoggingType(),
		redaction.Obfuscate(original, fields),
		redaction.Obfuscate(changed, fields),
	)
	s.emit(event)
	return nil
}

// RecordDeleted emits a "Data Deleted" record with the redacted attributes of entity
func (s *Service) RecordDeleted(entity models.Loggable) error {
	attrs, err := entity.LoggingAttributes()
	if err != nil {
		return s.fail(entity, models.ChangeDeleted, err)
	}

	event := models.NewDeletedEvent(
		entity.LoggingID(),
		entity.LoggingType(),
		redaction.Obfuscate(attrs, entity.RedactFields()),
	)
	s.emit(event)
	return nil
}

func (s *Service) emit(event *models.ChangeEvent) {
	s.sink.Log(zapcore.InfoLevel, event.Message(), event.Context())
	s.metrics.IncDataChange(string(event.Kind))
	s.logger.Debug("data change recorded",
		zap.String("kind", string(event.Kind)),
		zap.String("data_type", event.Type),
		zap.String("data_id", event.ID))
}

func (s *Service) fail(entity models.Loggable, kind models.ChangeKind, err error) error {
	if !services.IsMissingAttributeError(err) {
		var missing *models.MissingKeyError
		if errors.As(err, &missing) {
			err = services.NewMissingAttributeError(missing.Key, err)
		} else {
			err = services.NewMissingAttributeError("", err)
		}
	}

	s.metrics.IncDataChangeFailure()
	s.logger.Warn("failed to record data change",
		zap.String("kind", string(kind)),
		zap.String("data_type", entity.LoggingType()),
		zap.String("data_id", entity.LoggingID()),
		zap.Error(err))
	return err
}

func (s *Service) onlyBookkeeping(changed *models.Attributes) bool {
	return s.bookkeepingField != "" && changed.Len() == 1 && changed.Has(s.bookkeepingField)
}

// sameKeys checks that every changed key has an original value and vice versa
func sameKeys(original, changed *models.Attributes) error {
	for _, key := range changed.Keys() {
		if !original.Has(key) {
			return services.NewMissingAttributeError(key, nil)
		}
	}
	for _, key := range original.Keys() {
		if !changed.Has(key) {
			return services.NewMissingAttributeError(key, nil)
		}
	}
	return nil
}
