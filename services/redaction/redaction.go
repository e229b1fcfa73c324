package redaction

import "github.com/upb/structured-logger/models"

// Sentinel replaces the value of every redacted attribute
const Sentinel = "**REDACTED**"

// DefaultNever lists the bookkeeping fields a Policy never redacts by default
var DefaultNever = []string{"id", "created_at", "updated_at", "deleted_at"}

// Obfuscate returns a copy of attrs where the value of every key named in
// fields is replaced by Sentinel. Keys and their order are preserved, names
// in fields that are not attributes are ignored, and attrs is not modified.
func Obfuscate(attrs *models.Attributes, fields []string) *models.Attributes {
	redact := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		redact[f] = struct{}{}
	}

	out := models.NewAttributes()
	attrs.Each(func(key string, value any) {
		if _, ok := redact[key]; ok {
			out.Set(key, Sentinel)
			return
		}
		if nested, ok := value.(*models.Attributes); ok {
			value = nested.Clone()
		}
		out.Set(key, value)
	})
	return out
}

// Policy computes the fields of an entity to redact.
//
// Always names fields that are redacted whenever present. When AllowOnly is
// non-nil every attribute not listed in it is redacted too. Fields in Never
// are never redacted, whatever the other lists say.
type Policy struct {
	Always    []string
	AllowOnly []string
	Never     []string
}

// Option configures a Policy
type Option func(*Policy)

// WithAlways sets the fields that are always redacted
func WithAlways(fields ...string) Option {
	return func(p *Policy) {
		p.Always = fields
	}
}

// WithAllowOnly switches the policy to allowlist mode: every attribute not
// listed is redacted. Calling it with no fields redacts every attribute.
func WithAllowOnly(fields ...string) Option {
	return func(p *Policy) {
		if fields == nil {
			fields = []string{}
		}
		p.AllowOnly = fields
	}
}

// WithNever replaces the never-redact list
func WithNever(fields ...string) Option {
	return func(p *Policy) {
		p.Never = fields
	}
}

// NewPolicy creates a Policy that starts from DefaultNever
func NewPolicy(opts ...Option) *Policy {
	p := &Policy{
		Never: append([]string(nil), DefaultNever...),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// FieldsFor implements models.RedactionSource
func (p *Policy) FieldsFor(attrs *models.Attributes) []string {
	if p == nil {
		return nil
	}

	never := toSet(p.Never)
	seen := make(map[string]struct{})
	fields := make([]string, 0, len(p.Always))

	add := func(f string) {
		if _, skip := never[f]; skip {
			return
		}
		if _, dup := seen[f]; dup {
			return
		}
		seen[f] = struct{}{}
		fields = append(fields, f)
	}

	for _, f := range p.Always {
		add(f)
	}

	if p.AllowOnly != nil {
		allowed := toSet(p.AllowOnly)
		for _, key := range attrs.Keys() {
			if _, ok := allowed[key]; !ok {
				add(key)
			}
		}
	}

	return fields
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
