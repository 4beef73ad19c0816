package archive

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/text/encoding/unicode"

	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
)

// Index stream signature and the sub-format revisions the reader decodes.
// Revision 2 uses UTF-8 strings; revision 3 switched strings to UTF-16LE
// and added an escape for record bodies longer than 64KiB.
var signature = [4]byte{'B', 'G', 'K', 'N'}

const (
	RevisionUTF8  = 2
	RevisionUTF16 = 3

	extendedLength = 0xFFFF

	// maxValueDepth bounds nesting of array values. Real documents stay in
	// single digits; the bound defends against crafted containers.
	maxValueDepth = 32
)

// Config controls index decoding.
type Config struct {
	// Recovery decides what happens on a record-level soft failure.
	// Nil means lenient: keep the record, continue.
	Recovery recovery.Strategy
	Logger   observability.Logger
}

// Result is the decoded index stream.
type Result struct {
	Table    *raw.Table
	Revision uint16
	// Soft collects per-record failures that did not abort the read,
	// in stream order.
	Soft []error
}

// Reader decodes index-stream bytes into a raw object table.
type Reader struct {
	cfg Config
	log observability.Logger
}

func NewReader(cfg Config) *Reader {
	log := cfg.Logger
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Reader{cfg: cfg, log: log}
}

var utf16Dec = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

// Read decodes the full index stream. A structural problem yields a
// *FormatError; unknown record tags are soft failures handled through the
// configured recovery strategy.
func (rd *Reader) Read(data []byte) (*Result, error) {
	d := &decoder{data: data}

	var sig [4]byte
	if err := d.bytes(sig[:]); err != nil {
		return nil, err
	}
	if sig != signature {
		return nil, formatErrf(0, "bad signature %q", sig[:])
	}
	rev, err := d.uint16()
	if err != nil {
		return nil, err
	}
	if rev != RevisionUTF8 && rev != RevisionUTF16 {
		return nil, formatErrf(4, "unknown format revision %d", rev)
	}
	root, err := d.uint32()
	if err != nil {
		return nil, err
	}

	res := &Result{
		Table:    &raw.Table{Records: make(map[uint32]*raw.Record), Root: root},
		Revision: rev,
	}
	for !d.done() {
		rec, err := rd.readRecord(d, rev)
		if err != nil {
			return nil, err
		}
		if _, dup := res.Table.Records[rec.ID]; dup {
			return nil, formatErrf(d.off, "object id %d occurs twice", rec.ID)
		}
		res.Table.Records[rec.ID] = rec

		if !rec.Tag.Known() {
			rec.Unknown = true
			soft := &UnsupportedFormatError{ID: rec.ID, Tag: rec.Tag}
			res.Soft = append(res.Soft, soft)
			rd.log.Warn("unknown record tag",
				observability.Uint32(observability.FieldRecord, rec.ID),
				observability.String(observability.FieldTag, rec.Tag.String()),
			)
			if rd.cfg.Recovery != nil {
				loc := recovery.Location{ShapeID: rec.ID, Component: "archive"}
				if rd.cfg.Recovery.OnError(soft, loc) == recovery.ActionFail {
					return nil, soft
				}
			}
		}
	}
	if _, ok := res.Table.Records[root]; !ok {
		return nil, formatErrf(-1, "root object %d not present", root)
	}
	return res, nil
}

func (rd *Reader) readRecord(d *decoder, rev uint16) (*raw.Record, error) {
	bodyLen16, err := d.uint16()
	if err != nil {
		return nil, err
	}
	bodyLen := uint32(bodyLen16)
	if rev == RevisionUTF16 && bodyLen16 == extendedLength {
		if bodyLen, err = d.uint32(); err != nil {
			return nil, err
		}
	}
	body, err := d.slice(int(bodyLen))
	if err != nil {
		return nil, err
	}

	bd := &decoder{data: body, base: d.off - int64(bodyLen)}
	id, err := bd.uint32()
	if err != nil {
		return nil, err
	}
	tag, err := bd.uint16()
	if err != nil {
		return nil, err
	}
	count, err := bd.uint16()
	if err != nil {
		return nil, err
	}

	rec := &raw.Record{ID: id, Tag: raw.Tag(tag), Fields: make(map[raw.FieldKey]raw.Value, count)}
	for i := 0; i < int(count); i++ {
		key, err := bd.uint16()
		if err != nil {
			return nil, err
		}
		val, err := readValue(bd, rev, 0)
		if err != nil {
			return nil, err
		}
		rec.Fields[raw.FieldKey(key)] = val
	}
	if !bd.done() {
		return nil, formatErrf(bd.pos(), "record %d: %d trailing bytes", id, bd.remaining())
	}
	return rec, nil
}

func readValue(d *decoder, rev uint16, depth int) (raw.Value, error) {
	if depth > maxValueDepth {
		return nil, formatErrf(d.pos(), "value nesting exceeds %d levels", maxValueDepth)
	}
	marker, err := d.byte()
	if err != nil {
		return nil, err
	}
	switch marker {
	case 0x00:
		return raw.NullValue{}, nil
	case 0x01:
		b, err := d.byte()
		if err != nil {
			return nil, err
		}
		return raw.BoolValue{V: b != 0}, nil
	case 0x02:
		v, err := d.uint64()
		if err != nil {
			return nil, err
		}
		return raw.IntValue{V: int64(v)}, nil
	case 0x03:
		v, err := d.float64()
		if err != nil {
			return nil, err
		}
		return raw.FloatValue{V: v}, nil
	case 0x04:
		n, err := d.uint16()
		if err != nil {
			return nil, err
		}
		b, err := d.slice(int(n))
		if err != nil {
			return nil, err
		}
		s, err := decodeString(b, rev)
		if err != nil {
			return nil, formatErrf(d.pos(), "bad string payload: %v", err)
		}
		return raw.StringValue{V: s}, nil
	case 0x05:
		id, err := d.uint32()
		if err != nil {
			return nil, err
		}
		return raw.RefValue{ID: id}, nil
	case 0x06:
		n, err := d.uint16()
		if err != nil {
			return nil, err
		}
		arr := raw.ArrayValue{Items: make([]raw.Value, 0, n)}
		for i := 0; i < int(n); i++ {
			item, err := readValue(d, rev, depth+1)
			if err != nil {
				return nil, err
			}
			arr.Items = append(arr.Items, item)
		}
		return arr, nil
	case 0x07:
		n, err := d.uint32()
		if err != nil {
			return nil, err
		}
		b, err := d.slice(int(n))
		if err != nil {
			return nil, err
		}
		out := make([]byte, n)
		copy(out, b)
		return raw.DataValue{B: out}, nil
	default:
		return nil, formatErrf(d.pos()-1, "unknown value marker 0x%02x", marker)
	}
}

func decodeString(b []byte, rev uint16) (string, error) {
	if rev == RevisionUTF8 {
		return string(b), nil
	}
	if len(b)%2 != 0 {
		return "", fmt.Errorf("odd UTF-16 byte length %d", len(b))
	}
	out, err := utf16Dec.Bytes(b)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// decoder is a bounds-checked little-endian cursor. Every underrun comes
// back as a *FormatError carrying the stream offset.
type decoder struct {
	data []byte
	off  int64
	base int64
}

func (d *decoder) pos() int64     { return d.base + d.off }
func (d *decoder) done() bool     { return d.off >= int64(len(d.data)) }
func (d *decoder) remaining() int { return len(d.data) - int(d.off) }

func (d *decoder) slice(n int) ([]byte, error) {
	if n < 0 || d.remaining() < n {
		return nil, formatErrf(d.pos(), "truncated: need %d bytes, have %d", n, d.remaining())
	}
	b := d.data[d.off : d.off+int64(n)]
	d.off += int64(n)
	return b, nil
}

func (d *decoder) bytes(dst []byte) error {
	b, err := d.slice(len(dst))
	if err != nil {
		return err
	}
	copy(dst, b)
	return nil
}

func (d *decoder) byte() (byte, error) {
	b, err := d.slice(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *decoder) uint16() (uint16, error) {
	b, err := d.slice(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *decoder) uint32() (uint32, error) {
	b, err := d.slice(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *decoder) uint64() (uint64, error) {
	b, err := d.slice(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (d *decoder) float64() (float64, error) {
	v, err := d.uint64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}
