// Package observability provides the structured logging surface used by the
// conversion pipeline. Stage diagnostics (soft failures in particular) carry
// slide and shape identity as fields so a report can name the offending
// element.
package observability

type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

type Field interface {
	Key() string
	Value() interface{}
}

type stringField struct{ key, val string }

func (f stringField) Key() string        { return f.key }
func (f stringField) Value() interface{} { return f.val }

type intField struct {
	key string
	val int
}

func (f intField) Key() string        { return f.key }
func (f intField) Value() interface{} { return f.val }

type uint32Field struct {
	key string
	val uint32
}

func (f uint32Field) Key() string        { return f.key }
func (f uint32Field) Value() interface{} { return f.val }

type errorField struct {
	key string
	err error
}

func (f errorField) Key() string        { return f.key }
func (f errorField) Value() interface{} { return f.err }

func String(key, value string) Field        { return stringField{key, value} }
func Int(key string, value int) Field       { return intField{key, value} }
func Uint32(key string, value uint32) Field { return uint32Field{key, value} }
func Error(key string, err error) Field     { return errorField{key, err} }

type NopLogger struct{}

func (NopLogger) Debug(string, ...Field) {}
func (NopLogger) Info(string, ...Field)  {}
func (NopLogger) Warn(string, ...Field)  {}
func (NopLogger) Error(string, ...Field) {}
func (NopLogger) With(...Field) Logger   { return NopLogger{} }

// Standard field names used across the pipeline.
const (
	FieldSlide    = "slide"
	FieldShape    = "shape"
	FieldRecord   = "record"
	FieldTag      = "tag"
	FieldFont     = "font"
	FieldResource = "resource"
)
