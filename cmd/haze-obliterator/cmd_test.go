package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(100 + x), G: uint8(120 + y), B: 180, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cli := NewCLI()
	cli.SetOut(&out)
	cli.SetErr(&out)
	cli.SetArgs(args)
	err := cli.Execute()
	return out.String(), err
}

func TestDehazeCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hazy.png")
	writePNG(t, in, 32, 24)
	restored := filepath.Join(dir, "out.png")
	trans := filepath.Join(dir, "t.png")

	out, err := execute(t, "dehaze", in,
		"--config", filepath.Join(dir, "absent.toml"),
		"--output", restored,
		"--transmission", trans,
		"--window", "5",
		"--workers", "2",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "restored")
	assert.FileExists(t, restored)
	assert.FileExists(t, trans)
}

func TestDehazeRejectsEvenWindow(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hazy.png")
	writePNG(t, in, 8, 8)

	_, err := execute(t, "dehaze", in, "--config", filepath.Join(dir, "absent.toml"), "--window", "4")
	assert.Error(t, err)
}

func TestDehazeMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "dehaze", filepath.Join(dir, "nope.png"),
		"--config", filepath.Join(dir, "absent.toml"),
		"--output", filepath.Join(dir, "out.png"))
	assert.Error(t, err)
}

func TestExportRawCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "hazy.png")
	writePNG(t, in, 16, 16)
	bin := filepath.Join(dir, "image.bin")

	out, err := execute(t, "export-raw", in, "--output", bin, "--width", "8", "--height", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "Total bytes: 144")

	data, err := os.ReadFile(bin)
	require.NoError(t, err)
	assert.Len(t, data, 8*6*3)
}
