package recovery

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slidekit/key2pdf/observability"
)

func TestStrictAlwaysFails(t *testing.T) {
	s := NewStrictStrategy()
	assert.Equal(t, ActionFail, s.OnError(errors.New("boom"), Location{Component: "resolver"}))
}

func TestLenientRecordsAndContinues(t *testing.T) {
	var buf strings.Builder
	s := NewLenientStrategy(observability.NewConsoleLogger(&buf, observability.LevelWarn))

	loc := Location{Slide: 3, ShapeID: 42, Component: "layout"}
	assert.Equal(t, ActionPlaceholder, s.OnError(errors.New("span escapes grid"), loc))
	assert.Equal(t, ActionPlaceholder, s.OnError(errors.New("unknown shape"), loc))

	assert.Len(t, s.Errors, 2)
	assert.Contains(t, buf.String(), "degraded element")
	assert.Contains(t, buf.String(), "span escapes grid")
}

func TestLenientNilLogger(t *testing.T) {
	s := NewLenientStrategy(nil)
	assert.Equal(t, ActionPlaceholder, s.OnError(errors.New("x"), Location{}))
}
