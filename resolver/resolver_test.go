package resolver

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slidekit/key2pdf/archive"
	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/raw"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
	"github.com/slidekit/key2pdf/styles"
)

type tableBuilder struct {
	t *raw.Table
}

func newTable(root uint32) *tableBuilder {
	return &tableBuilder{t: &raw.Table{Records: map[uint32]*raw.Record{}, Root: root}}
}

func (b *tableBuilder) rec(id uint32, tag raw.Tag, fields map[raw.FieldKey]raw.Value) *tableBuilder {
	if fields == nil {
		fields = map[raw.FieldKey]raw.Value{}
	}
	b.t.Records[id] = &raw.Record{ID: id, Tag: tag, Fields: fields}
	return b
}

func f(v float64) raw.Value { return raw.FloatValue{V: v} }
func i(v int64) raw.Value   { return raw.IntValue{V: v} }
func s(v string) raw.Value  { return raw.StringValue{V: v} }
func ref(id uint32) raw.Value {
	return raw.RefValue{ID: id}
}
func refs(ids ...uint32) raw.Value {
	items := make([]raw.Value, len(ids))
	for k, id := range ids {
		items[k] = raw.RefValue{ID: id}
	}
	return raw.ArrayValue{Items: items}
}

// docWith wraps shapes into a one-slide document table.
func docWith(shapes func(b *tableBuilder)) *raw.Table {
	b := newTable(1).
		rec(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
			raw.FieldW:        f(800),
			raw.FieldH:        f(600),
			raw.FieldChildren: refs(2),
		}).
		rec(2, raw.TagSlide, map[raw.FieldKey]raw.Value{
			raw.FieldChildren: refs(10),
		})
	shapes(b)
	return b.t
}

func TestResolveMinimalDocument(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapeRect, map[raw.FieldKey]raw.Value{
			raw.FieldX: f(100), raw.FieldY: f(50),
			raw.FieldW: f(200), raw.FieldH: f(80),
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	doc := res.Document

	assert.Equal(t, scene.Size{W: 800, H: 600}, doc.Canvas)
	require.Len(t, doc.Slides, 1)
	assert.Equal(t, 1, doc.Slides[0].Number)
	require.Len(t, doc.Slides[0].Shapes, 1)

	r, ok := doc.Slides[0].Shapes[0].(*scene.Rect)
	require.True(t, ok)
	assert.Equal(t, coords.Rect{W: 200, H: 80}, r.Bounds)

	// Position lives in the transform.
	p := r.Transform.Transform(coords.Point{})
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 50, p.Y, 1e-9)

	// The arena indexes the shape.
	got, ok := doc.ShapeByID(10)
	require.True(t, ok)
	assert.Same(t, doc.Slides[0].Shapes[0], got)
}

func TestResolveRootErrors(t *testing.T) {
	var fe *archive.FormatError

	_, err := Resolve(newTable(1).t, Config{})
	require.ErrorAs(t, err, &fe)

	table := newTable(1).rec(1, raw.TagSlide, nil).t
	_, err = Resolve(table, Config{})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "want document")

	table = newTable(1).rec(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
		raw.FieldW: f(0), raw.FieldH: f(600),
	}).t
	_, err = Resolve(table, Config{})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "not positive")
}

func TestResolveRotationPivotsAboutCenter(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapeRect, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(100), raw.FieldH: f(40),
			raw.FieldRotation: f(180),
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	sh := res.Document.Slides[0].Shapes[0]

	// A half turn about the center maps the origin to the far corner.
	p := sh.Base().Transform.Transform(coords.Point{})
	assert.InDelta(t, 100, p.X, 1e-9)
	assert.InDelta(t, 40, p.Y, 1e-9)
	// The center is fixed.
	c := sh.Base().Transform.Transform(coords.Point{X: 50, Y: 20})
	assert.InDelta(t, 50, c.X, 1e-9)
	assert.InDelta(t, 20, c.Y, 1e-9)
}

func TestResolveCycleBecomesNonOwning(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagGroup, map[raw.FieldKey]raw.Value{
			raw.FieldChildren: refs(11),
		})
		b.rec(11, raw.TagGroup, map[raw.FieldKey]raw.Value{
			raw.FieldChildren: refs(10), // back edge
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)

	outer, ok := res.Document.Slides[0].Shapes[0].(*scene.Group)
	require.True(t, ok)
	require.Len(t, outer.Children, 1)
	inner, ok := outer.Children[0].(*scene.Group)
	require.True(t, ok)
	assert.Empty(t, inner.Children, "back edge must not create a second owner")
	assert.Equal(t, uint32(10), inner.LinkedTo, "back edge survives as a non-owning link")
	assert.Zero(t, outer.LinkedTo)
}

func TestResolveSharedShapeKeepsFirstOwner(t *testing.T) {
	table := newTable(1).
		rec(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(800), raw.FieldH: f(600),
			raw.FieldChildren: refs(2, 3),
		}).
		rec(2, raw.TagSlide, map[raw.FieldKey]raw.Value{raw.FieldChildren: refs(10)}).
		rec(3, raw.TagSlide, map[raw.FieldKey]raw.Value{raw.FieldChildren: refs(10)}).
		rec(10, raw.TagShapeOval, map[raw.FieldKey]raw.Value{raw.FieldW: f(10), raw.FieldH: f(10)}).t

	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	assert.Len(t, res.Document.Slides[0].Shapes, 1)
	assert.Empty(t, res.Document.Slides[1].Shapes)
}

func TestResolveUnknownShapeStrictAndLenient(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapeSpiral, map[raw.FieldKey]raw.Value{
			raw.FieldX: f(5), raw.FieldY: f(5),
			raw.FieldW: f(60), raw.FieldH: f(60),
		})
	})

	_, err := Resolve(table, Config{Recovery: recovery.NewStrictStrategy()})
	var use *scene.UnsupportedShapeError
	require.ErrorAs(t, err, &use)
	assert.Equal(t, uint32(10), use.ID)

	res, err := Resolve(table, Config{Recovery: recovery.NewLenientStrategy(observability.NopLogger{})})
	require.NoError(t, err)
	require.Len(t, res.Soft, 1)

	ph, ok := res.Document.Slides[0].Shapes[0].(*scene.Unsupported)
	require.True(t, ok)
	assert.Equal(t, raw.TagShapeSpiral, ph.Tag)
	assert.Equal(t, coords.Rect{W: 60, H: 60}, ph.Bounds, "placeholder keeps decodable geometry")
}

func TestResolveDanglingReference(t *testing.T) {
	table := docWith(func(b *tableBuilder) {}) // slide child 10 never defined

	var fe *archive.FormatError
	_, err := Resolve(table, Config{})
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, err.Error(), "missing record 10")

	res, err := Resolve(table, Config{Recovery: recovery.NewLenientStrategy(observability.NopLogger{})})
	require.NoError(t, err)
	assert.Empty(t, res.Document.Slides[0].Shapes)
	assert.Len(t, res.Soft, 1)
}

func TestResolveTextBox(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagTextBox, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(300), raw.FieldH: f(100),
			raw.FieldChildren: refs(20),
		})
		b.rec(20, raw.TagParagraph, map[raw.FieldKey]raw.Value{
			raw.FieldListLevel: i(1),
			raw.FieldStyle:     ref(40),
			raw.FieldChildren:  refs(21, 22),
		})
		b.rec(21, raw.TagTextRun, map[raw.FieldKey]raw.Value{raw.FieldText: s("Hello ")})
		b.rec(22, raw.TagTextRun, map[raw.FieldKey]raw.Value{
			raw.FieldText:  s("world"),
			raw.FieldStyle: ref(41),
		})
		b.rec(40, raw.TagStyle, map[raw.FieldKey]raw.Value{
			raw.FieldAlignment: i(2),
		})
		b.rec(41, raw.TagStyle, map[raw.FieldKey]raw.Value{
			raw.FieldBold: raw.BoolValue{V: true},
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)

	box, ok := res.Document.Slides[0].Shapes[0].(*scene.TextBox)
	require.True(t, ok)
	require.Len(t, box.Paragraphs, 1)
	p := box.Paragraphs[0]
	assert.Equal(t, 1, p.ListLevel)
	align, _ := p.Style.Int(styles.AttrAlignment)
	assert.Equal(t, styles.AlignCenter, align)
	require.Len(t, p.Runs, 2)
	assert.Equal(t, "Hello ", p.Runs[0].Text)
	bold, _ := p.Runs[1].Style.Bool(styles.AttrBold)
	assert.True(t, bold)
}

func TestResolveTable(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagTable, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(400), raw.FieldH: f(200),
			raw.FieldRows: i(2), raw.FieldCols: i(2),
			raw.FieldColWidths: raw.ArrayValue{Items: []raw.Value{f(100), f(300)}},
			raw.FieldChildren:  refs(20, 21),
		})
		b.rec(20, raw.TagTableCell, map[raw.FieldKey]raw.Value{
			raw.FieldRow: i(0), raw.FieldCol: i(0),
			raw.FieldRowSpan: i(2),
		})
		b.rec(21, raw.TagTableCell, map[raw.FieldKey]raw.Value{
			raw.FieldRow: i(0), raw.FieldCol: i(1),
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)

	tab, ok := res.Document.Slides[0].Shapes[0].(*scene.Table)
	require.True(t, ok)
	assert.Equal(t, 2, tab.Rows)
	assert.Equal(t, []float64{100, 300}, tab.ColWidths)
	require.Len(t, tab.Cells, 2)
	assert.Equal(t, 2, tab.Cells[0].RowSpan)
	assert.Equal(t, 1, tab.Cells[0].ColSpan, "span defaults to 1")
	assert.Equal(t, 1, tab.Cells[1].Col)
}

func TestResolveTableRejectsEmptyGrid(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagTable, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(400), raw.FieldH: f(200),
			raw.FieldRows: i(0), raw.FieldCols: i(2),
		})
	})
	var fe *archive.FormatError
	_, err := Resolve(table, Config{})
	require.ErrorAs(t, err, &fe)
}

func TestResolvePathCommands(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapePath, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(100), raw.FieldH: f(100),
			raw.FieldPath: s("M 0 0 L 100 0 C 100 50 50 100 0 100 Z"),
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)

	path, ok := res.Document.Slides[0].Shapes[0].(*scene.Path)
	require.True(t, ok)
	require.Len(t, path.Commands, 4)
	assert.Equal(t, scene.OpMove, path.Commands[0].Op)
	assert.Equal(t, scene.OpCurve, path.Commands[2].Op)
	assert.Len(t, path.Commands[2].Pts, 3)
	assert.Equal(t, scene.OpClose, path.Commands[3].Op)
}

func TestResolvePathMalformed(t *testing.T) {
	for _, src := range []string{"L 1 2", "M 0", "M 0 0 Q 1 2", "M x y"} {
		table := docWith(func(b *tableBuilder) {
			b.rec(10, raw.TagShapePath, map[raw.FieldKey]raw.Value{
				raw.FieldW: f(10), raw.FieldH: f(10),
				raw.FieldPath: s(src),
			})
		})
		var use *scene.UnsupportedShapeError
		_, err := Resolve(table, Config{})
		require.ErrorAs(t, err, &use, "source %q", src)
	}
}

func TestResolveStarPointPath(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapePath, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(100), raw.FieldH: f(100),
			raw.FieldPointType: s("star"),
		})
	})

	res, err := Resolve(table, Config{})
	require.NoError(t, err)

	path := res.Document.Slides[0].Shapes[0].(*scene.Path)
	require.Len(t, path.Commands, 11) // 10 vertices plus close
	assert.Equal(t, scene.OpClose, path.Commands[10].Op)

	// First vertex sits on the top of the inscribed ellipse.
	top := path.Commands[0].Pts[0]
	assert.InDelta(t, 50, top.X, 1e-9)
	assert.InDelta(t, 0, top.Y, 1e-9)
	// Inner vertices sit closer to the center than outer ones.
	outer := math.Hypot(path.Commands[0].Pts[0].X-50, path.Commands[0].Pts[0].Y-50)
	in := math.Hypot(path.Commands[1].Pts[0].X-50, path.Commands[1].Pts[0].Y-50)
	assert.Less(t, in, outer)
}

func TestResolveUnknownPointPath(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapePath, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(10), raw.FieldH: f(10),
			raw.FieldPointType: s("moebius"),
		})
	})
	var use *scene.UnsupportedShapeError
	_, err := Resolve(table, Config{})
	require.ErrorAs(t, err, &use)
	assert.Contains(t, use.Error(), "moebius")
}

type mediaStub map[string][]byte

func (m mediaStub) Has(name string) bool { _, ok := m[name]; return ok }
func (m mediaStub) ReadStream(name string) ([]byte, error) {
	if b, ok := m[name]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("stream %q not found", name)
}

func TestResolveImageMedia(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagImage, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(64), raw.FieldH: f(64),
			raw.FieldMediaPath: s("media/cat.png"),
			raw.FieldNaturalW:  f(128), raw.FieldNaturalH: f(128),
		})
	})

	media := mediaStub{"media/cat.png": []byte{0x89, 'P', 'N', 'G'}}
	res, err := Resolve(table, Config{Media: media})
	require.NoError(t, err)

	img := res.Document.Slides[0].Shapes[0].(*scene.Image)
	assert.Equal(t, "media/cat.png", img.Stream)
	assert.Equal(t, media["media/cat.png"], img.Data)
	assert.Equal(t, scene.Size{W: 128, H: 128}, img.NaturalSize)
}

func TestResolveImageMissingStream(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagImage, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(64), raw.FieldH: f(64),
			raw.FieldMediaPath: s("media/gone.png"),
		})
	})

	res, err := Resolve(table, Config{
		Media:    mediaStub{},
		Recovery: recovery.NewLenientStrategy(observability.NopLogger{}),
	})
	require.NoError(t, err)
	require.Len(t, res.Soft, 1)
	_, ok := res.Document.Slides[0].Shapes[0].(*scene.Unsupported)
	assert.True(t, ok)
}

func TestResolveMasterSharedAcrossSlides(t *testing.T) {
	table := newTable(1).
		rec(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(800), raw.FieldH: f(600),
			raw.FieldChildren: refs(2, 3),
		}).
		rec(2, raw.TagSlide, map[raw.FieldKey]raw.Value{raw.FieldMaster: ref(5)}).
		rec(3, raw.TagSlide, map[raw.FieldKey]raw.Value{
			raw.FieldMaster: ref(5),
			raw.FieldHidden: raw.BoolValue{V: true},
		}).
		rec(5, raw.TagMasterSlide, map[raw.FieldKey]raw.Value{raw.FieldChildren: refs(50)}).
		rec(50, raw.TagShapeRect, map[raw.FieldKey]raw.Value{raw.FieldW: f(800), raw.FieldH: f(600)}).t

	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	doc := res.Document

	require.Len(t, doc.Slides, 2)
	assert.Same(t, doc.Slides[0].Master, doc.Slides[1].Master)
	assert.Len(t, doc.Slides[0].Master.Shapes, 1)
	assert.True(t, doc.Slides[1].Hidden)
	assert.Len(t, doc.VisibleSlides(), 1)
}

func TestResolveThemeStyle(t *testing.T) {
	table := newTable(1).
		rec(1, raw.TagDocument, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(800), raw.FieldH: f(600),
			raw.FieldTheme:    ref(4),
			raw.FieldChildren: refs(2),
		}).
		rec(2, raw.TagSlide, nil).
		rec(4, raw.TagTheme, map[raw.FieldKey]raw.Value{raw.FieldStyle: ref(40)}).
		rec(40, raw.TagStyle, map[raw.FieldKey]raw.Value{raw.FieldFontName: s("Futura")}).t

	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	require.NotNil(t, res.Document.Theme)
	name, ok := res.Document.Theme.Style.Str(styles.AttrFontName)
	require.True(t, ok)
	assert.Equal(t, "Futura", name)
}

func TestResolveLinkedField(t *testing.T) {
	table := docWith(func(b *tableBuilder) {
		b.rec(10, raw.TagShapeRect, map[raw.FieldKey]raw.Value{
			raw.FieldW: f(10), raw.FieldH: f(10),
			raw.FieldLinked: ref(99),
		})
	})
	res, err := Resolve(table, Config{})
	require.NoError(t, err)
	assert.Equal(t, uint32(99), res.Document.Slides[0].Shapes[0].Base().LinkedTo)
}
