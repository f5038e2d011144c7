package models

import (
	"fmt"
)

// Channels is the number of intensity channels carried by an Image.
const Channels = 3

// Shape is the spatial size of a grid.
type Shape struct {
	Width  int
	Height int
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Pixels returns Width*Height.
func (s Shape) Pixels() int {
	return s.Width * s.Height
}

// Empty reports whether the shape has no pixels.
func (s Shape) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Image is a grid of RGB intensity triples, conceptually in [0,1].
//
// Pix holds the samples row-major with the three channels interleaved
// (R, G, B). Pipeline stages only ever write into images they allocated
// themselves; an Image handed to another stage is treated as read-only.
type Image struct {
	Width  int
	Height int
	Pix    []float64
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height*Channels),
	}
}

// NewUniformImage allocates an image where every pixel equals rgb.
func NewUniformImage(width, height int, rgb [3]float64) *Image {
	img := NewImage(width, height)
	for i := 0; i < len(img.Pix); i += Channels {
		img.Pix[i] = rgb[0]
		img.Pix[i+1] = rgb[1]
		img.Pix[i+2] = rgb[2]
	}
	return img
}

// ImageFromPixels wraps interleaved samples without copying.
func ImageFromPixels(width, height int, pix []float64) (*Image, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", width, height)
	}
	if len(pix) != width*height*Channels {
		return nil, fmt.Errorf("pixel buffer has %d samples, want %d for %dx%d", len(pix), width*height*Channels, width, height)
	}
	return &Image{Width: width, Height: height, Pix: pix}, nil
}

func (img *Image) Shape() Shape {
	return Shape{Width: img.Width, Height: img.Height}
}

// Stride is the number of samples per row.
func (img *Image) Stride() int {
	return img.Width * Channels
}

// PixOffset returns the index of the R sample of (x, y).
func (img *Image) PixOffset(x, y int) int {
	return y*img.Stride() + x*Channels
}

// At returns the three channel values of (x, y).
func (img *Image) At(x, y int) [3]float64 {
	i := img.PixOffset(x, y)
	return [3]float64{img.Pix[i], img.Pix[i+1], img.Pix[i+2]}
}

// Set writes the three channel values of (x, y).
func (img *Image) Set(x, y int, rgb [3]float64) {
	i := img.PixOffset(x, y)
	img.Pix[i] = rgb[0]
	img.Pix[i+1] = rgb[1]
	img.Pix[i+2] = rgb[2]
}

// Row returns the interleaved samples of row y.
func (img *Image) Row(y int) []float64 {
	start := y * img.Stride()
	return img.Pix[start : start+img.Stride()]
}

func (img *Image) Clone() *Image {
	pix := make([]float64, len(img.Pix))
	copy(pix, img.Pix)
	return &Image{Width: img.Width, Height: img.Height, Pix: pix}
}

// ScalarMap is a grid of single values sharing the spatial layout of an Image
// (dark channel, saturation, transmission, ...).
type ScalarMap struct {
	Width  int
	Height int
	Data   []float64
}

// NewScalarMap allocates a zeroed map.
func NewScalarMap(width, height int) *ScalarMap {
	return &ScalarMap{
		Width:  width,
		Height: height,
		Data:   make([]float64, width*height),
	}
}

// ScalarMapFromData wraps row-major values without copying.
func ScalarMapFromData(width, height int, data []float64) (*ScalarMap, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("invalid map dimensions %dx%d", width, height)
	}
	if len(data) != width*height {
		return nil, fmt.Errorf("map buffer has %d values, want %d for %dx%d", len(data), width*height, width, height)
	}
	return &ScalarMap{Width: width, Height: height, Data: data}, nil
}

func (m *ScalarMap) Shape() Shape {
	return Shape{Width: m.Width, Height: m.Height}
}

func (m *ScalarMap) At(x, y int) float64 {
	return m.Data[y*m.Width+x]
}

func (m *ScalarMap) Set(x, y int, v float64) {
	m.Data[y*m.Width+x] = v
}

// Row returns the values of row y.
func (m *ScalarMap) Row(y int) []float64 {
	return m.Data[y*m.Width : (y+1)*m.Width]
}

func (m *ScalarMap) Clone() *ScalarMap {
	data := make([]float64, len(m.Data))
	copy(data, m.Data)
	return &ScalarMap{Width: m.Width, Height: m.Height, Data: data}
}
