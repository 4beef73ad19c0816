// Package archive unpacks a legacy presentation container and decodes its
// index stream into a raw, reference-indexed object table.
//
// The container is a ZIP package. The stream directory is the ZIP name
// list; the record graph lives in the "index.bgkn" stream, and media
// (images, embedded documents, fill textures) are sibling streams
// referenced by path from records.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"sort"
)

// IndexStream is the name of the required record-graph stream.
const IndexStream = "index.bgkn"

// Container is an opened archive package. It is read-only.
type Container struct {
	zr    *zip.Reader
	files map[string]*zip.File
}

// OpenContainer opens the archive held by r. The caller keeps ownership
// of r; it must stay readable for the lifetime of the Container.
func OpenContainer(r io.ReaderAt, size int64) (*Container, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, &FormatError{Offset: -1, Reason: fmt.Sprintf("not a presentation archive: %v", err)}
	}
	c := &Container{zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		c.files[f.Name] = f
	}
	if _, ok := c.files[IndexStream]; !ok {
		return nil, &FormatError{Offset: -1, Reason: "missing " + IndexStream + " stream"}
	}
	return c, nil
}

// Streams returns the sorted stream directory.
func (c *Container) Streams() []string {
	names := make([]string, 0, len(c.files))
	for name := range c.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether the named stream exists.
func (c *Container) Has(name string) bool {
	_, ok := c.files[name]
	return ok
}

// ReadStream returns the full contents of the named stream.
func (c *Container) ReadStream(name string) ([]byte, error) {
	f, ok := c.files[name]
	if !ok {
		return nil, fmt.Errorf("no such stream %q", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open stream %q: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, &FormatError{Offset: -1, Reason: fmt.Sprintf("stream %q truncated: %v", name, err)}
	}
	return data, nil
}

// ReadIndex decodes the index stream into the raw object table using the
// given reader configuration.
func (c *Container) ReadIndex(rd *Reader) (*Result, error) {
	data, err := c.ReadStream(IndexStream)
	if err != nil {
		return nil, err
	}
	return rd.Read(data)
}
