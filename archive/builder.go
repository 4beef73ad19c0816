package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"golang.org/x/text/encoding/unicode"

	"github.com/slidekit/key2pdf/ir/raw"
)

// Builder assembles archive containers. It exists for round-trip tests and
// fixture generation; the converter itself never writes archives.
type Builder struct {
	rev     uint16
	root    uint32
	records []builderRecord
	names   []string
	streams map[string][]byte
}

type builderRecord struct {
	id     uint32
	tag    raw.Tag
	fields map[raw.FieldKey]raw.Value
}

func NewBuilder(revision uint16) *Builder {
	return &Builder{rev: revision, streams: make(map[string][]byte)}
}

// SetRoot declares the document root object id.
func (b *Builder) SetRoot(id uint32) { b.root = id }

// AddRecord appends a record to the index stream in call order.
func (b *Builder) AddRecord(id uint32, tag raw.Tag, fields map[raw.FieldKey]raw.Value) {
	b.records = append(b.records, builderRecord{id: id, tag: tag, fields: fields})
}

// AddStream adds a media stream to the container.
func (b *Builder) AddStream(name string, data []byte) {
	if _, ok := b.streams[name]; !ok {
		b.names = append(b.names, name)
	}
	b.streams[name] = data
}

var utf16Enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewEncoder()

// Bytes serializes the container as a ZIP package.
func (b *Builder) Bytes() ([]byte, error) {
	index, err := b.encodeIndex()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(IndexStream)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(index); err != nil {
		return nil, err
	}
	for _, name := range b.names {
		w, err := zw.Create(name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(b.streams[name]); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (b *Builder) encodeIndex() ([]byte, error) {
	var out bytes.Buffer
	out.Write(signature[:])
	le16(&out, b.rev)
	le32(&out, b.root)

	for _, rec := range b.records {
		body, err := b.encodeBody(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", rec.id, err)
		}
		if len(body) >= extendedLength {
			if b.rev != RevisionUTF16 {
				return nil, fmt.Errorf("record %d: body too large for revision %d", rec.id, b.rev)
			}
			le16(&out, extendedLength)
			le32(&out, uint32(len(body)))
		} else {
			le16(&out, uint16(len(body)))
		}
		out.Write(body)
	}
	return out.Bytes(), nil
}

func (b *Builder) encodeBody(rec builderRecord) ([]byte, error) {
	var out bytes.Buffer
	le32(&out, rec.id)
	le16(&out, uint16(rec.tag))
	le16(&out, uint16(len(rec.fields)))

	keys := make([]raw.FieldKey, 0, len(rec.fields))
	for k := range rec.fields {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		le16(&out, uint16(k))
		if err := b.encodeValue(&out, rec.fields[k]); err != nil {
			return nil, err
		}
	}
	return out.Bytes(), nil
}

func (b *Builder) encodeValue(out *bytes.Buffer, v raw.Value) error {
	switch v := v.(type) {
	case raw.NullValue:
		out.WriteByte(0x00)
	case raw.BoolValue:
		out.WriteByte(0x01)
		if v.V {
			out.WriteByte(1)
		} else {
			out.WriteByte(0)
		}
	case raw.IntValue:
		out.WriteByte(0x02)
		le64(out, uint64(v.V))
	case raw.FloatValue:
		out.WriteByte(0x03)
		le64(out, math.Float64bits(v.V))
	case raw.StringValue:
		out.WriteByte(0x04)
		enc := []byte(v.V)
		if b.rev == RevisionUTF16 {
			var err error
			if enc, err = utf16Enc.Bytes(enc); err != nil {
				return fmt.Errorf("encode string: %w", err)
			}
		}
		if len(enc) > math.MaxUint16 {
			return fmt.Errorf("string too long (%d bytes)", len(enc))
		}
		le16(out, uint16(len(enc)))
		out.Write(enc)
	case raw.RefValue:
		out.WriteByte(0x05)
		le32(out, v.ID)
	case raw.ArrayValue:
		out.WriteByte(0x06)
		if len(v.Items) > math.MaxUint16 {
			return fmt.Errorf("array too long (%d items)", len(v.Items))
		}
		le16(out, uint16(len(v.Items)))
		for _, item := range v.Items {
			if err := b.encodeValue(out, item); err != nil {
				return err
			}
		}
	case raw.DataValue:
		out.WriteByte(0x07)
		le32(out, uint32(len(v.B)))
		out.Write(v.B)
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
	return nil
}

func le16(out *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	out.Write(b[:])
}

func le32(out *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	out.Write(b[:])
}

func le64(out *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	out.Write(b[:])
}
