package archive

import (
	"fmt"

	"github.com/slidekit/key2pdf/ir/raw"
)

// FormatError reports container-level corruption: a bad signature, a
// truncated stream, or structural limits exceeded. It is always fatal for
// the conversion run.
type FormatError struct {
	Offset int64 // byte offset within the index stream, -1 when unknown
	Reason string
}

func (e *FormatError) Error() string {
	if e.Offset < 0 {
		return fmt.Sprintf("malformed archive: %s", e.Reason)
	}
	return fmt.Sprintf("malformed archive at offset %d: %s", e.Offset, e.Reason)
}

func formatErrf(offset int64, format string, args ...interface{}) *FormatError {
	return &FormatError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedFormatError reports a record whose type tag the reader does not
// recognize. It is localized to one record: the caller may substitute a
// placeholder and continue.
type UnsupportedFormatError struct {
	ID  uint32
	Tag raw.Tag
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("record %d: unknown type tag 0x%04x", e.ID, uint16(e.Tag))
}
