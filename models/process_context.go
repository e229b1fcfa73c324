package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestInfo describes the inbound request of a process
type RequestInfo struct {
	Method        string
	URL           string // full URL, including the query string
	RemoteAddress string
	TraceID       string // value of the trace id header, if the caller sent one
}

// ResponseInfo describes the outbound response of a process
type ResponseInfo struct {
	StatusCode int
}

// ProcessContext is the ambient metadata of one process: a request, job or command.
// It is built once when the process starts (the response is attached when known)
// and is read-only while records are formatted.
type ProcessContext struct {
	ProcessID    string
	Request      *RequestInfo  // nil for CLI processes, including commands and jobs
	Response     *ResponseInfo // nil for CLI processes
	ProcessStart *time.Time
	CauserID     string
	CauserType   string
	Impersonator string
	Environment  string
	Service      string
	Args         []string
}

// NewProcessContext creates a ProcessContext with a freshly generated process id
func NewProcessContext() ProcessContext {
	return ProcessContext{
		ProcessID: uuid.NewString(),
	}
}

// WithRequest attaches the inbound request
func (pc ProcessContext) WithRequest(req RequestInfo) ProcessContext {
	pc.Request = &req
	return pc
}

// WithResponse attaches the outbound response status
func (pc ProcessContext) WithResponse(statusCode int) ProcessContext {
	pc.Response = &ResponseInfo{StatusCode: statusCode}
	return pc
}

// WithProcessStart sets the moment the process started
func (pc ProcessContext) WithProcessStart(t time.Time) ProcessContext {
	pc.ProcessStart = &t
	return pc
}

// WithCauser sets who caused the records of this process, and who impersonated them
func (pc ProcessContext) WithCauser(id, causerType, impersonator string) ProcessContext {
	pc.CauserID = id
	pc.CauserType = causerType
	pc.Impersonator = impersonator
	return pc
}

// WithEnvironment sets the environment tag and the service name
func (pc ProcessContext) WithEnvironment(env, service string) ProcessContext {
	pc.Environment = env
	pc.Service = service
	return pc
}

// TraceID returns the id grouping all records of the process.
// A trace id supplied by the request wins over the generated process id.
func (pc ProcessContext) TraceID() string {
	if pc.Request != nil && pc.Request.TraceID != "" {
		return pc.Request.TraceID
	}
	return pc.ProcessID
}

// IsRequest reports whether the process serves an inbound request
func (pc ProcessContext) IsRequest() bool {
	return pc.Request != nil
}
