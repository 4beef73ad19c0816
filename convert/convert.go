// Package convert wires the whole pipeline: open the archive container,
// decode the index into the raw table, resolve the scene graph, and compose
// pages onto an output surface.
package convert

import (
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/slidekit/key2pdf/archive"
	"github.com/slidekit/key2pdf/compose"
	"github.com/slidekit/key2pdf/fonts"
	"github.com/slidekit/key2pdf/observability"
	"github.com/slidekit/key2pdf/recovery"
	"github.com/slidekit/key2pdf/resolver"
	"github.com/slidekit/key2pdf/surface"
	"github.com/slidekit/key2pdf/surface/pdfsurface"
)

// fontStreamDir is the container directory whose TrueType streams are
// registered with the font catalog before composition.
const fontStreamDir = "fonts/"

// Options configures a conversion.
type Options struct {
	Recovery recovery.Strategy    // nil means strict: first error aborts
	Logger   observability.Logger // nil silences diagnostics
	Pages    *compose.PageRange   // nil renders every visible slide
	Workers  int                  // slide recording concurrency
}

// Report summarizes a finished conversion.
type Report struct {
	Pages    int
	Revision uint16
	Soft     []error // per-element failures absorbed by a lenient strategy
}

// Convert runs the pipeline from an opened archive to a finished surface.
func Convert(in io.ReaderAt, size int64, target surface.Surface, opts Options) (*Report, error) {
	if opts.Recovery == nil {
		opts.Recovery = recovery.NewStrictStrategy()
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}

	container, err := archive.OpenContainer(in, size)
	if err != nil {
		return nil, err
	}

	decoded, err := container.ReadIndex(archive.NewReader(archive.Config{
		Recovery: opts.Recovery,
		Logger:   opts.Logger,
	}))
	if err != nil {
		return nil, err
	}

	resolved, err := resolver.Resolve(decoded.Table, resolver.Config{
		Recovery: opts.Recovery,
		Logger:   opts.Logger,
		Media:    container,
	})
	if err != nil {
		return nil, err
	}

	catalog := fonts.NewCatalog(opts.Logger)
	registerFontStreams(container, catalog, opts.Logger)

	composed, err := compose.Compose(resolved.Document, target, compose.Config{
		Fonts:    catalog,
		Media:    container,
		Recovery: opts.Recovery,
		Logger:   opts.Logger,
		Pages:    opts.Pages,
		Workers:  opts.Workers,
	})
	if err != nil {
		return nil, err
	}
	if err := target.Finish(); err != nil {
		return nil, err
	}

	report := &Report{Pages: composed.Pages, Revision: decoded.Revision}
	report.Soft = append(report.Soft, decoded.Soft...)
	report.Soft = append(report.Soft, resolved.Soft...)
	report.Soft = append(report.Soft, composed.Soft...)
	return report, nil
}

// File converts an archive on disk into a PDF file.
func File(inPath, outPath string, opts Options) (*Report, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return nil, err
	}
	defer in.Close()
	st, err := in.Stat()
	if err != nil {
		return nil, err
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, err
	}

	report, err := Convert(in, st.Size(), pdfsurface.New(out), opts)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		return nil, err
	}
	return report, nil
}

// registerFontStreams loads the archive's bundled faces. A face that fails
// to parse is logged and skipped; text set in it falls back to built-in
// metrics.
func registerFontStreams(c *archive.Container, catalog *fonts.Catalog, log observability.Logger) {
	for _, name := range c.Streams() {
		if !strings.HasPrefix(name, fontStreamDir) {
			continue
		}
		ext := strings.ToLower(path.Ext(name))
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		data, err := c.ReadStream(name)
		if err != nil {
			log.Warn("font stream unreadable",
				observability.String(observability.FieldResource, name),
				observability.Error("reason", err))
			continue
		}
		family := strings.TrimSuffix(path.Base(name), path.Ext(name))
		if err := catalog.Register(family, data); err != nil {
			log.Warn("font stream rejected",
				observability.String(observability.FieldResource, name),
				observability.Error("reason", err))
		}
	}
}

// Describe returns a short human-readable summary of a report.
func Describe(r *Report) string {
	if len(r.Soft) == 0 {
		return fmt.Sprintf("%d pages (archive revision %d)", r.Pages, r.Revision)
	}
	return fmt.Sprintf("%d pages (archive revision %d), %d degraded elements",
		r.Pages, r.Revision, len(r.Soft))
}
