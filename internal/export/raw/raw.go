// Package raw writes and reads headerless interleaved RGB byte buffers, the
// frame format fed to the hardware simulation.
package raw

import (
	"bufio"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"haze-obliterator/internal/models"
)

const (
	DefaultWidth  = 320
	DefaultHeight = 240
)

// Size is the byte length of a width×height frame.
func Size(width, height int) int {
	return width * height * models.Channels
}

// Export scales img to width×height with bilinear filtering and writes R, G,
// B bytes row by row. It returns the number of bytes written.
func Export(w io.Writer, img image.Image, width, height int) (int, error) {
	if width <= 0 || height <= 0 {
		return 0, fmt.Errorf("invalid frame size %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	bw := bufio.NewWriter(w)
	written := 0
	for y := 0; y < height; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+width*4]
		for x := 0; x < width; x++ {
			n, err := bw.Write(row[x*4 : x*4+3])
			written += n
			if err != nil {
				return written, err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return written, err
	}
	return written, nil
}

// ExportFile decodes inPath and writes its raw frame to outPath.
func ExportFile(inPath, outPath string, width, height int) (n int, err error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, &models.DecodeError{Source: inPath, Err: err}
	}
	defer in.Close()

	img, _, err := image.Decode(in)
	if err != nil {
		return 0, &models.DecodeError{Source: inPath, Err: err}
	}

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", outPath, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", outPath, cerr)
		}
	}()

	return Export(out, img, width, height)
}

// Read parses a width×height frame into a normalized image.
func Read(r io.Reader, width, height int) (*models.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	buf := make([]byte, Size(width, height))
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read %dx%d frame: %w", width, height, err)
	}

	img := models.NewImage(width, height)
	for i, b := range buf {
		img.Pix[i] = float64(b) / 255
	}
	return img, nil
}
