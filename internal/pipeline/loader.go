package pipeline

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"haze-obliterator/internal/models"
)

// LoaderGo names the pure-Go decoder.
const LoaderGo = "go"

// GoLoader decodes with the image package and the x/image codecs.
type GoLoader struct {
	logger Logger
}

func NewGoLoader(log Logger) *GoLoader {
	return &GoLoader{logger: log}
}

func (l *GoLoader) Name() string {
	return LoaderGo
}

func (l *GoLoader) LoadFile(path string) (*models.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.DecodeError{Source: path, Err: err}
	}
	return l.decode(path, data)
}

func (l *GoLoader) LoadBytes(data []byte) (*models.Image, error) {
	return l.decode("memory", data)
}

func (l *GoLoader) decode(source string, data []byte) (*models.Image, error) {
	l.logger.Debug("ImageLoader", "decoding image", map[string]interface{}{
		"source":     source,
		"size_bytes": len(data),
	})

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &models.DecodeError{Source: source, Err: err}
	}

	out := FromImage(img)
	if out.Shape().Empty() {
		return nil, &models.DecodeError{Source: source, Err: errors.New("image has no pixels")}
	}

	l.logger.Info("ImageLoader", "image loaded", map[string]interface{}{
		"source": source,
		"format": format,
		"width":  out.Width,
		"height": out.Height,
	})
	return out, nil
}

// FromImage converts any image to normalized RGB through 16-bit colour.
// Alpha is discarded.
func FromImage(img image.Image) *models.Image {
	b := img.Bounds()
	rgba := image.NewRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	out := models.NewImage(b.Dx(), b.Dy())
	for y := 0; y < out.Height; y++ {
		row := out.Row(y)
		for x := 0; x < out.Width; x++ {
			c := rgba.RGBA64At(x, y)
			i := x * models.Channels
			row[i] = float64(c.R) / 0xffff
			row[i+1] = float64(c.G) / 0xffff
			row[i+2] = float64(c.B) / 0xffff
		}
	}
	return out
}
