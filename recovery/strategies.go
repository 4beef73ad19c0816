package recovery

import (
	"github.com/slidekit/key2pdf/observability"
)

// StrictStrategy aborts on the first localized error. Useful for validating
// archives rather than converting them.
type StrictStrategy struct{}

func NewStrictStrategy() *StrictStrategy { return &StrictStrategy{} }

func (s *StrictStrategy) OnError(err error, location Location) Action {
	return ActionFail
}

// LenientStrategy is the default conversion policy: log the element that
// failed, keep a placeholder so layout still reserves its space, and
// continue. It records every error so the CLI can report a summary.
type LenientStrategy struct {
	log    observability.Logger
	Errors []error
}

func NewLenientStrategy(log observability.Logger) *LenientStrategy {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &LenientStrategy{log: log}
}

func (s *LenientStrategy) OnError(err error, location Location) Action {
	s.Errors = append(s.Errors, err)
	s.log.Warn("degraded element",
		observability.String("component", location.Component),
		observability.Int(observability.FieldSlide, location.Slide),
		observability.Uint32(observability.FieldShape, location.ShapeID),
		observability.Error("err", err),
	)
	return ActionPlaceholder
}
