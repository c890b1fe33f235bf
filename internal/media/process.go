package media

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	PostMaxSize    = 1200
	ProfileSize    = 400
	EncodeQuality  = 85
	maxImagePixels = 40_000_000
)

var contentTypes = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Processed is an image ready to be written.
type Processed struct {
	Name        string
	ContentType string
	Data        []byte
}

// Process validates, flattens, resizes and re-encodes an upload. The output
// format follows the upload's file extension.
func Process(kind Kind, up Upload) (*Processed, error) {
	ext := extension(up.Filename)
	contentType, ok := contentTypes[ext]
	if !ok || len(up.Data) == 0 {
		return nil, ErrUnsupported
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(up.Data))
	if err != nil || cfg.Width*cfg.Height > maxImagePixels {
		return nil, ErrUnsupported
	}
	src, _, err := image.Decode(bytes.NewReader(up.Data))
	if err != nil {
		return nil, ErrUnsupported
	}

	var out image.Image
	switch kind {
	case KindProfile:
		out = centerOnSquare(resizeToFit(flatten(src), ProfileSize, ProfileSize), ProfileSize)
	case KindPost:
		out = resizeToFit(flatten(src), PostMaxSize, PostMaxSize)
	default:
		return nil, fmt.Errorf("unknown media kind %q", kind)
	}

	data, err := encode(out, ext)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ext, err)
	}

	return &Processed{
		Name:        strings.ReplaceAll(uuid.NewString(), "-", "") + "." + ext,
		ContentType: contentType,
		Data:        data,
	}, nil
}

func extension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// flatten composites src over opaque white.
func flatten(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	return dst
}

// resizeToFit shrinks src to fit within maxWidth×maxHeight keeping its aspect ratio.
// Smaller images are returned unchanged.
func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if scaleH := float64(maxHeight) / float64(h); scaleH < scale {
		scale = scaleH
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func centerOnSquare(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	b := src.Bounds()
	offset := image.Pt((size-b.Dx())/2, (size-b.Dy())/2)
	draw.Draw(dst, image.Rectangle{Min: offset, Max: offset.Add(b.Size())}, src, b.Min, draw.Src)
	return dst
}

func encode(img image.Image, ext string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	var err error
	switch ext {
	case "jpg", "jpeg":
		err = jpeg.Encode(buf, img, &jpeg.Options{Quality: EncodeQuality})
	case "png":
		err = (&png.Encoder{CompressionLevel: png.BestCompression}).Encode(buf, img)
	case "gif":
		err = gif.Encode(buf, img, nil)
	case "webp":
		err = webp.Encode(buf, img, &webp.Options{Quality: EncodeQuality})
	default:
		return nil, ErrUnsupported
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
