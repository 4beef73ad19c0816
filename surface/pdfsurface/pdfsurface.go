// Package pdfsurface renders pages into a self-contained PDF file. Text is
// drawn with the fourteen built-in Type1 faces; images are embedded as
// XObjects, JPEG data as-is and everything else as flate-compressed RGB.
package pdfsurface

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/slidekit/key2pdf/coords"
	"github.com/slidekit/key2pdf/ir/scene"
	"github.com/slidekit/key2pdf/styles"
	"github.com/slidekit/key2pdf/surface"
)

// Surface accumulates pages and writes the document on Finish.
type Surface struct {
	out      io.Writer
	pages    []*page
	finished bool
}

func New(out io.Writer) *Surface {
	return &Surface{out: out}
}

// Page starts a new output page of the given size in points.
func (s *Surface) Page(width, height float64) surface.Page {
	p := &page{
		w: width, h: height,
		flip:   coords.Matrix{1, 0, 0, -1, 0, height},
		fonts:  make(map[string]bool),
		alphas: make(map[string]bool),
	}
	s.pages = append(s.pages, p)
	return p
}

type page struct {
	w, h   float64
	flip   coords.Matrix // top-down slide space to PDF space
	buf    bytes.Buffer
	fonts  map[string]bool
	alphas map[string]bool
	images []*ximage
}

func num(v float64) string { return fmt.Sprintf("%.4f", v) }

func mat(m coords.Matrix) string {
	return fmt.Sprintf("%s %s %s %s %s %s", num(m[0]), num(m[1]), num(m[2]), num(m[3]), num(m[4]), num(m[5]))
}

func rgb(c styles.Color) string {
	return fmt.Sprintf("%s %s %s", num(c.R), num(c.G), num(c.B))
}

// alphaName registers a constant-alpha graphics state and returns its
// resource name. The name doubles as the registry key.
func (p *page) alphaName(opacity float64) string {
	name := fmt.Sprintf("GSa%d", int(opacity*1000))
	p.alphas[name] = true
	return name
}

func (p *page) Path(cmds []scene.PathCommand, transform coords.Matrix, paint surface.Paint) {
	if paint.Fill == nil && paint.Stroke == nil {
		return
	}
	full := transform.Multiply(p.flip)
	fmt.Fprintf(&p.buf, "q\n%s cm\n", mat(full))
	if paint.Opacity > 0 && paint.Opacity < 1 {
		fmt.Fprintf(&p.buf, "/%s gs\n", p.alphaName(paint.Opacity))
	}
	if paint.Fill != nil {
		fmt.Fprintf(&p.buf, "%s rg\n", rgb(*paint.Fill))
	}
	if st := paint.Stroke; st != nil {
		fmt.Fprintf(&p.buf, "%s RG\n%s w\n", rgb(st.Color), num(st.Width))
		fmt.Fprintf(&p.buf, "%d J %d j\n", capCode(st.Cap), joinCode(st.Join))
		if st.MiterLimit > 0 {
			fmt.Fprintf(&p.buf, "%s M\n", num(st.MiterLimit))
		}
	}
	p.emitPath(cmds)
	switch {
	case paint.Fill != nil && paint.Stroke != nil:
		p.buf.WriteString("B\n")
	case paint.Fill != nil:
		p.buf.WriteString("f\n")
	default:
		p.buf.WriteString("S\n")
	}
	p.buf.WriteString("Q\n")
}

func (p *page) emitPath(cmds []scene.PathCommand) {
	for _, c := range cmds {
		switch c.Op {
		case scene.OpMove:
			fmt.Fprintf(&p.buf, "%s %s m\n", num(c.Pts[0].X), num(c.Pts[0].Y))
		case scene.OpLine:
			fmt.Fprintf(&p.buf, "%s %s l\n", num(c.Pts[0].X), num(c.Pts[0].Y))
		case scene.OpCurve:
			fmt.Fprintf(&p.buf, "%s %s %s %s %s %s c\n",
				num(c.Pts[0].X), num(c.Pts[0].Y),
				num(c.Pts[1].X), num(c.Pts[1].Y),
				num(c.Pts[2].X), num(c.Pts[2].Y))
		case scene.OpClose:
			p.buf.WriteString("h\n")
		}
	}
}

func capCode(lineCap string) int {
	switch lineCap {
	case "round":
		return 1
	case "square":
		return 2
	}
	return 0
}

func joinCode(join string) int {
	switch join {
	case "round":
		return 1
	case "bevel":
		return 2
	}
	return 0
}

func (p *page) Text(run surface.TextRun, transform coords.Matrix) {
	if run.Text == "" || run.Size <= 0 {
		return
	}
	font := baseFont(run.Font)
	p.fonts[font] = true
	full := transform.Multiply(p.flip)

	fmt.Fprintf(&p.buf, "q\n%s cm\n", mat(full))
	fmt.Fprintf(&p.buf, "%s rg\nBT\n/%s %s Tf\n", rgb(run.Color), fontRes(font), num(run.Size))
	// The page transform carries one y-flip; the text matrix cancels it so
	// glyphs stay upright at the baseline origin.
	fmt.Fprintf(&p.buf, "1 0 0 -1 %s %s Tm\n", num(run.X), num(run.Y))
	fmt.Fprintf(&p.buf, "(%s) Tj\nET\nQ\n", escapeText(run.Text))
}

// winAnsiExtra covers the WinAnsi code points above Latin-1 that slide text
// actually uses (typographic quotes, dashes, the bullet marker).
var winAnsiExtra = map[rune]byte{
	'€': 0x80, '…': 0x85, '‘': 0x91, '’': 0x92,
	'“': 0x93, '”': 0x94, '•': 0x95, '–': 0x96,
	'—': 0x97, '™': 0x99,
}

// escapeText converts text to a WinAnsi PDF string literal. Characters the
// encoding cannot express degrade to a question mark.
func escapeText(s string) []byte {
	var out bytes.Buffer
	for _, r := range s {
		switch {
		case r == '(' || r == ')' || r == '\\':
			out.WriteByte('\\')
			out.WriteByte(byte(r))
		case r == '\n':
			out.WriteString(`\n`)
		case r < 0x100:
			out.WriteByte(byte(r))
		default:
			if b, ok := winAnsiExtra[r]; ok {
				out.WriteByte(b)
			} else {
				out.WriteByte('?')
			}
		}
	}
	return out.Bytes()
}

func (p *page) Image(data []byte, rect coords.Rect, transform coords.Matrix, opacity float64) error {
	img, err := encodeImage(data)
	if err != nil {
		return err
	}
	img.name = fmt.Sprintf("Im%d", len(p.images)+1)
	p.images = append(p.images, img)

	// Map the image unit square (y-up) onto the local rectangle (y-down).
	place := coords.Scale(rect.W, -rect.H).Multiply(coords.Translate(rect.X, rect.Y+rect.H))
	full := place.Multiply(transform).Multiply(p.flip)

	fmt.Fprintf(&p.buf, "q\n%s cm\n", mat(full))
	if opacity > 0 && opacity < 1 {
		fmt.Fprintf(&p.buf, "/%s gs\n", p.alphaName(opacity))
	}
	fmt.Fprintf(&p.buf, "/%s Do\nQ\n", img.name)
	return nil
}

// Finish assembles and writes the PDF.
func (s *Surface) Finish() error {
	if s.finished {
		return fmt.Errorf("pdfsurface: Finish called twice")
	}
	s.finished = true

	w := &docWriter{}
	w.header()

	catalog := w.reserve()
	pagesTree := w.reserve()

	// Shared font objects, one per used base font.
	fontRefs := map[string]int{}
	for _, p := range s.pages {
		for f := range p.fonts {
			if _, ok := fontRefs[f]; !ok {
				fontRefs[f] = w.reserve()
			}
		}
	}
	for _, f := range sortedKeys(fontRefs) {
		w.object(fontRefs[f], fmt.Sprintf("<< /Type /Font /Subtype /Type1 /BaseFont /%s /Encoding /WinAnsiEncoding >>", f))
	}

	// Shared alpha graphics states.
	alphaRefs := map[string]int{}
	for _, p := range s.pages {
		for a := range p.alphas {
			if _, ok := alphaRefs[a]; !ok {
				alphaRefs[a] = w.reserve()
			}
		}
	}
	for _, a := range sortedKeys(alphaRefs) {
		v := float64(atoiSafe(a[len("GSa"):])) / 1000
		w.object(alphaRefs[a], fmt.Sprintf("<< /Type /ExtGState /ca %s /CA %s >>", num(v), num(v)))
	}

	var pageRefs []int
	for _, p := range s.pages {
		for _, img := range p.images {
			img.ref = w.reserve()
			w.stream(img.ref, img.dict(), img.data)
		}
		content := w.reserve()
		w.stream(content, fmt.Sprintf("<< /Length %d >>", p.buf.Len()), p.buf.Bytes())

		res := &bytes.Buffer{}
		res.WriteString("<< ")
		if len(p.fonts) > 0 {
			res.WriteString("/Font << ")
			for _, f := range sortedBoolKeys(p.fonts) {
				fmt.Fprintf(res, "/%s %d 0 R ", fontRes(f), fontRefs[f])
			}
			res.WriteString(">> ")
		}
		if len(p.alphas) > 0 {
			res.WriteString("/ExtGState << ")
			for _, a := range sortedBoolKeys(p.alphas) {
				fmt.Fprintf(res, "/%s %d 0 R ", a, alphaRefs[a])
			}
			res.WriteString(">> ")
		}
		if len(p.images) > 0 {
			res.WriteString("/XObject << ")
			for _, img := range p.images {
				fmt.Fprintf(res, "/%s %d 0 R ", img.name, img.ref)
			}
			res.WriteString(">> ")
		}
		res.WriteString(">>")

		ref := w.reserve()
		pageRefs = append(pageRefs, ref)
		w.object(ref, fmt.Sprintf(
			"<< /Type /Page /Parent %d 0 R /MediaBox [0 0 %s %s] /Resources %s /Contents %d 0 R >>",
			pagesTree, num(p.w), num(p.h), res.String(), content))
	}

	kids := &bytes.Buffer{}
	for _, r := range pageRefs {
		fmt.Fprintf(kids, "%d 0 R ", r)
	}
	w.object(pagesTree, fmt.Sprintf("<< /Type /Pages /Count %d /Kids [%s] >>", len(pageRefs), kids.String()))
	w.object(catalog, fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesTree))

	w.xref(catalog)
	_, err := s.out.Write(w.buf.Bytes())
	return err
}

// fontRes derives the resource name of a base font.
func fontRes(base string) string {
	out := make([]byte, 0, len(base)+1)
	out = append(out, 'F')
	for i := 0; i < len(base); i++ {
		if c := base[i]; c != '-' {
			out = append(out, c)
		}
	}
	return string(out)
}

// docWriter serializes numbered objects followed by the xref table.
type docWriter struct {
	buf     bytes.Buffer
	offsets []int64 // index = object number - 1, 0 = unwritten
	next    int
}

func (w *docWriter) header() {
	w.buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")
}

// reserve allocates the next object number.
func (w *docWriter) reserve() int {
	w.next++
	w.offsets = append(w.offsets, 0)
	return w.next
}

func (w *docWriter) object(ref int, body string) {
	w.offsets[ref-1] = int64(w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", ref, body)
}

func (w *docWriter) stream(ref int, dict string, data []byte) {
	w.offsets[ref-1] = int64(w.buf.Len())
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nstream\n", ref, dict)
	w.buf.Write(data)
	w.buf.WriteString("\nendstream\nendobj\n")
}

func (w *docWriter) xref(catalog int) {
	xrefOffset := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n", w.next+1)
	w.buf.WriteString("0000000000 65535 f \n")
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		w.next+1, catalog, xrefOffset)
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedBoolKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return n
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}
