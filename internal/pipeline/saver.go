package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"haze-obliterator/internal/models"
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// FormatForPath picks the output format: forced when set, otherwise from the
// file extension, PNG when the extension is not recognised.
func FormatForPath(path, forced string) string {
	if forced != "" {
		return forced
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

func to8(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 1) * 255))
}

// ToImage quantizes a normalized grid to 8-bit RGB.
func ToImage(img *models.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		row := img.Row(y)
		for x := 0; x < img.Width; x++ {
			i := x * models.Channels
			out.SetNRGBA(x, y, color.NRGBA{R: to8(row[i]), G: to8(row[i+1]), B: to8(row[i+2]), A: 0xff})
		}
	}
	return out
}

// MapToGray renders a scalar map in [0,1] as 8-bit grayscale.
func MapToGray(m *models.ScalarMap) *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x, v := range m.Row(y) {
			out.SetGray(x, y, color.Gray{Y: to8(v)})
		}
	}
	return out
}

type Saver struct {
	logger Logger
	format string
}

// NewSaver builds a saver. format forces the encoding; empty selects by
// extension.
func NewSaver(log Logger, format string) *Saver {
	return &Saver{logger: log, format: format}
}

func (s *Saver) Encode(w io.Writer, img image.Image, format string) error {
	switch format {
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 95})
	case FormatPNG, "":
		return png.Encode(w, img)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func (s *Saver) SaveImage(path string, img *models.Image) error {
	return s.save(path, ToImage(img))
}

func (s *Saver) SaveMap(path string, m *models.ScalarMap) error {
	return s.save(path, MapToGray(m))
}

func (s *Saver) save(path string, img image.Image) (err error) {
	format := FormatForPath(path, s.format)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	if err := s.Encode(f, img, format); err != nil {
		s.logger.Error("ImageSaver", err, map[string]interface{}{
			"path":   path,
			"format": format,
		})
		return fmt.Errorf("encode %s: %w", path, err)
	}

	b := img.Bounds()
	s.logger.Info("ImageSaver", "image saved", map[string]interface{}{
		"path":   path,
		"format": format,
		"width":  b.Dx(),
		"height": b.Dy(),
	})
	return nil
}
