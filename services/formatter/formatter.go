package formatter

import (
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/upb/structured-logger/models"
	"github.com/upb/structured-logger/services"
)

// DatetimeLayout renders record and process start times, always in UTC
const DatetimeLayout = "2006-01-02T15:04:05.000000Z"

// Formatter turns raw records into structured records for one process.
// The process context is captured at construction and never changes.
type Formatter struct {
	pc      models.ProcessContext
	service string
	now     func() time.Time
}

// Option configures a Formatter
type Option func(*Formatter)

// WithService overrides the service name taken from the process context
func WithService(name string) Option {
	return func(f *Formatter) {
		f.service = name
	}
}

// WithClock sets the clock used to stamp records that carry no datetime
func WithClock(now func() time.Time) Option {
	return func(f *Formatter) {
		f.now = now
	}
}

// New creates a Formatter for the given process
func New(pc models.ProcessContext, opts ...Option) *Formatter {
	f := &Formatter{
		pc:      pc,
		service: pc.Service,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ProcessContext returns the process context the formatter was built with
func (f *Formatter) ProcessContext() models.ProcessContext {
	return f.pc
}

// Format builds the structured record for raw.
// It only fails when the record context is not a JSON object.
func (f *Formatter) Format(raw models.RawRecord) (models.StructuredRecord, error) {
	context, err := normalizeContext(raw.Context)
	if err != nil {
		return models.StructuredRecord{}, err
	}

	contextJSON, err := json.Marshal(context)
	if err != nil {
		return models.StructuredRecord{}, services.NewMalformedContextError(raw.Context, err)
	}

	datetime := raw.Datetime
	if datetime.IsZero() {
		datetime = f.now()
	}

	category := categoryOf(context)
	rec := models.StructuredRecord{
		Args:            strings.Join(f.pc.Args, " "),
		CauserID:        f.pc.CauserID,
		CauserType:      f.pc.CauserType,
		Context:         context,
		ContextAsString: string(contextJSON),
		Datetime:        formatTime(datetime),
		Impersonator:    f.pc.Impersonator,
		Level:           raw.Level.CapitalString(),
		Message:         raw.Message,
		ProcessContext:  models.ProcessKindCLI,
		ProcessID:       f.pc.TraceID(),
		Service:         f.service,
		Type:            category,
	}

	if category == models.CategoryDataChanged {
		entry, _ := lookup(context, string(models.CategoryDataChanged))
		if id, ok := lookup(entry, models.DataChangeKeyID); ok {
			rec.DataID = stringify(id)
		}
		if dataType, ok := lookup(entry, models.DataChangeKeyType); ok {
			rec.DataType = stringify(dataType)
		}
	}

	if f.pc.ProcessStart != nil {
		delta := datetime.Sub(*f.pc.ProcessStart).Milliseconds()
		start := formatTime(*f.pc.ProcessStart)
		rec.Delta = &delta
		rec.ProcessStart = &start
	}

	if f.pc.Environment != "" {
		env := f.pc.Environment
		rec.Env = &env
	}

	if req := f.pc.Request; req != nil {
		rec.ProcessContext = models.ProcessKindRequest
		rec.RequestMethod = req.Method
		rec.RemoteAddress = req.RemoteAddress
		rec.RequestURL, rec.RequestQuery = splitURL(req.URL)
	}

	if f.pc.Response != nil {
		rec.StatusCode = f.pc.Response.StatusCode
	}

	return rec, nil
}

// FormatBatch formats every record in order. The first failure aborts the batch.
func (f *Formatter) FormatBatch(raws []models.RawRecord) ([]models.StructuredRecord, error) {
	out := make([]models.StructuredRecord, 0, len(raws))
	for i, raw := range raws {
		rec, err := f.Format(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// normalizeContext accepts any map with string keys; nil reads as an empty object
func normalizeContext(context any) (any, error) {
	switch c := context.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		if c == nil {
			return map[string]any{}, nil
		}
		return c, nil
	case *models.Attributes:
		if c == nil {
			return models.NewAttributes(), nil
		}
		return c, nil
	default:
		v, ok := stringKeyedMap(context)
		if !ok {
			return nil, services.NewMalformedContextError(context, nil)
		}
		if v.IsNil() {
			return map[string]any{}, nil
		}
		return context, nil
	}
}

func stringKeyedMap(container any) (reflect.Value, bool) {
	v := reflect.ValueOf(container)
	if v.Kind() != reflect.Map || v.Type().Key().Kind() != reflect.String {
		return reflect.Value{}, false
	}
	return v, true
}

func categoryOf(context any) models.Category {
	if _, ok := lookup(context, string(models.CategoryAction)); ok {
		return models.CategoryAction
	}
	if _, ok := lookup(context, string(models.CategoryDataChanged)); ok {
		return models.CategoryDataChanged
	}
	return models.CategoryGeneral
}

func lookup(container any, key string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case *models.Attributes:
		return c.Get(key)
	default:
		v, ok := stringKeyedMap(container)
		if !ok {
			return nil, false
		}
		found := v.MapIndex(reflect.ValueOf(key).Convert(v.Type().Key()))
		if !found.IsValid() {
			return nil, false
		}
		return found.Interface(), true
	}
}

// stringify renders ids; integral floats have no decimals
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) {
			return strconv.FormatFloat(val, 'f', 0, 64)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// splitURL returns the URL without its query and fragment, and the raw query
func splitURL(raw string) (string, string) {
	u, err := url.Parse(raw)
	if err != nil {
		if i := strings.IndexByte(raw, '?'); i >= 0 {
			return raw[:i], raw[i+1:]
		}
		return raw, ""
	}

	query := u.RawQuery
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String(), query
}

func formatTime(t time.Time) string {
	return t.UTC().Format(DatetimeLayout)
}
