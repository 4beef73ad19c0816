// Package recovery defines the soft-failure policy for a conversion run.
//
// Container-level corruption is always fatal; everything below that level
// (a bad record, an unrenderable shape, an impossible table span) is routed
// through a Strategy, which decides whether the element is skipped with a
// placeholder or the run is aborted.
package recovery

// Location names the element an error originated from.
type Location struct {
	Slide     int    // 1-based slide number, 0 when not slide-scoped
	ShapeID   uint32 // object id of the shape, 0 when not shape-scoped
	Component string // pipeline stage: "archive", "resolver", "layout", "compose"
}

type Action int

const (
	// ActionFail aborts the whole conversion.
	ActionFail Action = iota
	// ActionSkip drops the element silently.
	ActionSkip
	// ActionPlaceholder keeps a bounding-box placeholder for the element.
	ActionPlaceholder
)

// Strategy decides how a localized error is handled.
type Strategy interface {
	OnError(err error, location Location) Action
}
