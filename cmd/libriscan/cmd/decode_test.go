package cmd

import (
	"encoding/json"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libriscan/libriscan/internal/testutil"
)

func writeBarcodePNG(t *testing.T, dir, name, digits string) string {
	t.Helper()
	img, err := testutil.RenderEAN13(digits, testutil.BarcodeImageOptions{})
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
	return path
}

func TestDecodeCommandRecognizesBarcode(t *testing.T) {
	path := writeBarcodePNG(t, t.TempDir(), "book.png", "9788535914849")

	output, err := executeCommand(t, "decode", path)
	require.NoError(t, err)
	assert.Contains(t, output, "9788535914849")
}

func TestDecodeCommandJSONOutput(t *testing.T) {
	path := writeBarcodePNG(t, t.TempDir(), "book.png", "9780306406157")

	output, err := executeCommand(t, "decode", path, "--format", "json")
	require.NoError(t, err)

	var results []decodeResult
	require.NoError(t, json.Unmarshal([]byte(output), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "9780306406157", results[0].ISBN)
	assert.Equal(t, "9780306406157", results[0].ISBN13)
	assert.NotEmpty(t, results[0].Method)
}

func TestDecodeCommandNoArgs(t *testing.T) {
	_, err := executeCommand(t, "decode")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}

func TestDecodeCommandUnreadableFile(t *testing.T) {
	output, err := executeCommand(t, "decode", filepath.Join(t.TempDir(), "missing.png"))
	require.Error(t, err)
	assert.Contains(t, output, "opening image")
}

func TestDecodeCommandBlankImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "blank.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, testutil.BlankImage(200, 100, 240)))
	require.NoError(t, f.Close())

	output, err := executeCommand(t, "decode", path)
	require.Error(t, err)
	assert.Contains(t, output, "no ISBN recognized")
}

func TestDecodeCommandWritesOutputFile(t *testing.T) {
	dir := t.TempDir()
	path := writeBarcodePNG(t, dir, "book.png", "9788535914849")
	outFile := filepath.Join(dir, "results.json")

	_, err := executeCommand(t, "decode", path, "--format", "json", "--output", outFile)
	require.NoError(t, err)

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	var results []decodeResult
	require.NoError(t, json.Unmarshal(data, &results))
	require.Len(t, results, 1)
	assert.Equal(t, "9788535914849", results[0].ISBN)
}

func TestDevicesCommand(t *testing.T) {
	dir := t.TempDir()
	writeBarcodePNG(t, dir, "a.png", "9788535914849")
	writeBarcodePNG(t, dir, "b.png", "9780306406157")

	output, err := executeCommand(t, "devices", "--frames", filepath.Join(dir, "*.png"))
	require.NoError(t, err)
	assert.Contains(t, output, "2 frames")
	assert.Contains(t, output, "native detector:")
}

func TestConfigInitCommand(t *testing.T) {
	target := filepath.Join(t.TempDir(), "libriscan.yaml")

	output, err := executeCommand(t, "config", "init", target)
	require.NoError(t, err)
	assert.Contains(t, output, target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "min_confidence")
	assert.Contains(t, string(data), "detect_interval_ms")
}

// Runs before TestScanCommandReplaysFrames; flag values are sticky on the
// shared command instance.
func TestScanCommandRequiresFrames(t *testing.T) {
	_, err := executeCommand(t, "scan")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--frames is required")
}

func TestScanCommandReplaysFrames(t *testing.T) {
	dir := t.TempDir()
	writeBarcodePNG(t, dir, "frame.png", "9788535914849")

	output, err := executeCommand(t, "scan",
		"--frames", filepath.Join(dir, "*.png"), "--fps", "50", "--timeout", "10s")
	require.NoError(t, err)
	assert.Contains(t, output, "9788535914849")
}
