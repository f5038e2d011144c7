package raw

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestExportWritesInterleavedRGB(t *testing.T) {
	var buf bytes.Buffer
	n, err := Export(&buf, solid(10, 6, color.NRGBA{R: 200, G: 100, B: 50, A: 255}), 4, 3)
	require.NoError(t, err)
	assert.Equal(t, Size(4, 3), n)
	require.Equal(t, 36, buf.Len())

	for i := 0; i < buf.Len(); i += 3 {
		assert.Equal(t, []byte{200, 100, 50}, buf.Bytes()[i:i+3])
	}
}

func TestExportRejectsBadSize(t *testing.T) {
	_, err := Export(io.Discard, solid(2, 2, color.NRGBA{A: 255}), 0, 5)
	assert.Error(t, err)
}

func TestReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := Export(&buf, solid(3, 2, color.NRGBA{R: 255, G: 0, B: 51, A: 255}), 3, 2)
	require.NoError(t, err)

	img, err := Read(&buf, 3, 2)
	require.NoError(t, err)
	px := img.At(2, 1)
	assert.InDeltaSlice(t, []float64{1, 0, 0.2}, px[:], 1e-12)
}

func TestReadShortFrame(t *testing.T) {
	_, err := Read(bytes.NewReader(make([]byte, 10)), 2, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	f, err := os.Create(in)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, solid(8, 8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})))
	require.NoError(t, f.Close())

	out := filepath.Join(dir, "image.bin")
	n, err := ExportFile(in, out, DefaultWidth, DefaultHeight)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth*DefaultHeight*3, n)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Len(t, data, n)

	_, err = ExportFile(filepath.Join(dir, "missing.png"), out, 4, 4)
	assert.Error(t, err)
}
