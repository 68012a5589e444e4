package imageprocessor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"math"

	// Decoders for every image type the upload categories accept.
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used for normalized uploads.
const DefaultQuality = 80

// OutputContentType is the single format every normalized image ends up in.
const OutputContentType = "image/jpeg"

var (
	ErrDecode = errors.New("failed to decode image")
	ErrEncode = errors.New("failed to encode image")
)

// Result is a normalized image ready to be written to storage.
type Result struct {
	Data        []byte
	Width       int
	Height      int
	ContentType string
}

// Processor handles image processing operations
type Processor struct {
	quality int // JPEG quality (1-100)
}

// NewProcessor creates a new image processor
func NewProcessor(quality int) *Processor {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Processor{
		quality: quality,
	}
}

// Quality returns the JPEG quality the processor encodes with.
func (p *Processor) Quality() int {
	return p.quality
}

// Normalize decodes an image, shrinks it to at most maxWidth pixels wide and
// re-encodes it as JPEG. A maxWidth of zero or less keeps the original size.
// Images narrower than maxWidth are never upscaled.
func (p *Processor) Normalize(reader io.Reader, maxWidth int) (*Result, error) {
	img, _, err := image.Decode(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	bounds := img.Bounds()
	width, height := TargetSize(bounds.Dx(), bounds.Dy(), maxWidth)
	flattened := p.resize(img, width, height)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flattened, &jpeg.Options{Quality: p.quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	return &Result{
		Data:        buf.Bytes(),
		Width:       width,
		Height:      height,
		ContentType: OutputContentType,
	}, nil
}

// resize draws img into a width x height canvas. JPEG has no alpha channel,
// so transparent pixels are composited onto white.
func (p *Processor) resize(img image.Image, width, height int) image.Image {
	bounds := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	if width == bounds.Dx() && height == bounds.Dy() {
		draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Over)
		return dst
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// TargetSize returns the output dimensions for a width x height image bounded
// by maxWidth, keeping the aspect ratio.
func TargetSize(width, height, maxWidth int) (int, int) {
	if maxWidth <= 0 || width <= maxWidth {
		return width, height
	}
	newHeight := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
	if newHeight < 1 {
		newHeight = 1
	}
	return maxWidth, newHeight
}

// Dimensions returns the dimensions of an image without decoding pixel data.
func Dimensions(reader io.Reader) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(reader)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return cfg.Width, cfg.Height, nil
}
