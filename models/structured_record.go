package models

import (
	"time"

	"go.uber.org/zap/zapcore"
)

// Category is the coarse classification of a log record.
// It is not the same thing as the level (info, error, ...).
type Category string

const (
	// CategoryGeneral is the default category
	CategoryGeneral Category = "general"

	// CategoryAction is for records describing something happening in the system,
	// for example an employee being hired
	CategoryAction Category = "action"

	// CategoryDataChanged is for records describing the creation, update or
	// deletion of an entity
	CategoryDataChanged Category = "data_changed"
)

// ProcessKind tells whether a record was produced while serving a request or by a CLI process
type ProcessKind string

const (
	ProcessKindRequest ProcessKind = "request"
	ProcessKindCLI     ProcessKind = "cli"
)

// RawRecord is a log call as received from the application, before formatting.
//
// Context must be map-shaped: map[string]any, *Attributes or nil.
type RawRecord struct {
	Message  string
	Level    zapcore.Level
	Context  any
	Datetime time.Time
}

// NewRawRecord creates a RawRecord stamped with the current time
func NewRawRecord(level zapcore.Level, message string, context any) RawRecord {
	return RawRecord{
		Message:  message,
		Level:    level,
		Context:  context,
		Datetime: time.Now(),
	}
}

// StructuredRecord is the canonical formatted record.
// Fields are declared in alphabetical order so the JSON encoding is too.
type StructuredRecord struct {
	Args            string      `json:"args" db:"args"`
	CauserID        string      `json:"causer_id" db:"causer_id"`
	CauserType      string      `json:"causer_type" db:"causer_type"`
	Context         any         `json:"context" db:"-"`
	ContextAsString string      `json:"context_as_string" db:"context"`
	DataID          string      `json:"data_id" db:"data_id"`
	DataType        string      `json:"data_type" db:"data_type"`
	Datetime        string      `json:"datetime" db:"datetime"`
	Delta           *int64      `json:"delta" db:"delta"`
	Env             *string     `json:"env" db:"env"`
	Impersonator    string      `json:"impersonator" db:"impersonator"`
	Level           string      `json:"level" db:"level"`
	Message         string      `json:"message" db:"message"`
	ProcessContext  ProcessKind `json:"process_context" db:"process_context"`
	ProcessID       string      `json:"process_id" db:"process_id"`
	ProcessStart    *string     `json:"process_start" db:"process_start"`
	RemoteAddress   string      `json:"remote_address" db:"remote_address"`
	RequestMethod   string      `json:"request_method" db:"request_method"`
	RequestQuery    string      `json:"request_query" db:"request_query"`
	RequestURL      string      `json:"request_url" db:"request_url"`
	Service         string      `json:"service" db:"service"`
	StatusCode      int         `json:"status_code" db:"status_code"`
	Type            Category    `json:"type" db:"type"`
}

// TableName returns the table name used by the Postgres transport
func (StructuredRecord) TableName() string {
	return "structured_logs"
}

// ToMap returns the record as a flat map holding every key of the schema
func (r StructuredRecord) ToMap() map[string]any {
	var delta, env, processStart any
	if r.Delta != nil {
		delta = *r.Delta
	}
	if r.Env != nil {
		env = *r.Env
	}
	if r.ProcessStart != nil {
		processStart = *r.ProcessStart
	}

	return map[string]any{
		"args":              r.Args,
		"causer_id":         r.CauserID,
		"causer_type":       r.CauserType,
		"context":           r.Context,
		"context_as_string": r.ContextAsString,
		"data_id":           r.DataID,
		"data_type":         r.DataType,
		"datetime":          r.Datetime,
		"delta":             delta,
		"env":               env,
		"impersonator":      r.Impersonator,
		"level":             r.Level,
		"message":           r.Message,
		"process_context":   string(r.ProcessContext),
		"process_id":        r.ProcessID,
		"process_start":     processStart,
		"remote_address":    r.RemoteAddress,
		"request_method":    r.RequestMethod,
		"request_query":     r.RequestQuery,
		"request_url":       r.RequestURL,
		"service":           r.Service,
		"status_code":       r.StatusCode,
		"type":              string(r.Type),
	}
}
