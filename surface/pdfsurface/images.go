package pdfsurface

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"image"

	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ximage is one image XObject awaiting serialization.
type ximage struct {
	name   string
	ref    int
	width  int
	height int
	filter string
	data   []byte
}

func (x *ximage) dict() string {
	return fmt.Sprintf(
		"<< /Type /XObject /Subtype /Image /Width %d /Height %d /ColorSpace /DeviceRGB /BitsPerComponent 8 /Filter /%s /Length %d >>",
		x.width, x.height, x.filter, len(x.data))
}

// encodeImage prepares raster data for embedding. JPEG streams pass through
// as DCTDecode; every other registered format is decoded and re-encoded as
// flate-compressed RGB. Alpha is dropped; slide media with transparency
// composites against whatever is already on the page as opaque.
func encodeImage(data []byte) (*ximage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		if _, err := jpeg.DecodeConfig(bytes.NewReader(data)); err == nil {
			return &ximage{width: cfg.Width, height: cfg.Height, filter: "DCTDecode", data: data}, nil
		}
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	raw := make([]byte, 0, cfg.Width*cfg.Height*3)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			raw = append(raw, byte(r>>8), byte(g>>8), byte(bl>>8))
		}
	}
	var out bytes.Buffer
	zw := zlib.NewWriter(&out)
	if _, err := zw.Write(raw); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return &ximage{width: cfg.Width, height: cfg.Height, filter: "FlateDecode", data: out.Bytes()}, nil
}
