// Package support carries the godog step definitions for the CLI
// integration features.
package support

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/libriscan/libriscan/cmd/libriscan/cmd"
	"github.com/libriscan/libriscan/internal/testutil"
)

// TestContext holds the state of one scenario: the scratch directory with
// generated images and the last command's outcome.
type TestContext struct {
	TempDir    string
	LastOutput string
	LastErr    error
}

// NewTestContext creates a scenario context with a scratch directory.
func NewTestContext() (*TestContext, error) {
	tempDir, err := os.MkdirTemp("", "libriscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	return &TestContext{TempDir: tempDir}, nil
}

// Cleanup removes the scenario's scratch directory.
func (testCtx *TestContext) Cleanup() error {
	return os.RemoveAll(testCtx.TempDir)
}

// RegisterDecodeSteps wires the decode feature's steps.
func (testCtx *TestContext) RegisterDecodeSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a barcode image "([^"]+)" encoding "(\d{13})"$`, testCtx.createBarcodeImage)
	sc.Step(`^a blank image "([^"]+)"$`, testCtx.createBlankImage)
	sc.Step(`^I decode "([^"]+)"$`, testCtx.runDecode)
	sc.Step(`^I decode "([^"]+)" as JSON$`, testCtx.runDecodeJSON)
	sc.Step(`^I decode "([^"]+)" and "([^"]+)"$`, testCtx.runDecodeTwo)
	sc.Step(`^the command succeeds$`, testCtx.commandSucceeds)
	sc.Step(`^the command fails$`, testCtx.commandFails)
	sc.Step(`^the output contains "([^"]*)"$`, testCtx.outputContains)
}

func (testCtx *TestContext) createBarcodeImage(name, digits string) error {
	img, err := testutil.RenderEAN13(digits, testutil.BarcodeImageOptions{})
	if err != nil {
		return fmt.Errorf("rendering barcode: %w", err)
	}
	return testCtx.writePNG(name, img)
}

func (testCtx *TestContext) createBlankImage(name string) error {
	return testCtx.writePNG(name, testutil.BlankImage(200, 100, 240))
}

func (testCtx *TestContext) writePNG(name string, img image.Image) error {
	f, err := os.Create(filepath.Join(testCtx.TempDir, name))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (testCtx *TestContext) run(args ...string) {
	buf := new(bytes.Buffer)
	root := cmd.GetRootCommand()
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	testCtx.LastErr = root.Execute()
	testCtx.LastOutput = buf.String()
}

func (testCtx *TestContext) runDecode(name string) error {
	testCtx.run("decode", filepath.Join(testCtx.TempDir, name), "--format", "text")
	return nil
}

func (testCtx *TestContext) runDecodeJSON(name string) error {
	testCtx.run("decode", filepath.Join(testCtx.TempDir, name), "--format", "json")
	return nil
}

func (testCtx *TestContext) runDecodeTwo(first, second string) error {
	testCtx.run("decode",
		filepath.Join(testCtx.TempDir, first),
		filepath.Join(testCtx.TempDir, second),
		"--format", "text")
	return nil
}

func (testCtx *TestContext) commandSucceeds() error {
	if testCtx.LastErr != nil {
		return fmt.Errorf("expected success, got error: %v\noutput:\n%s", testCtx.LastErr, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) commandFails() error {
	if testCtx.LastErr == nil {
		return fmt.Errorf("expected failure, command succeeded\noutput:\n%s", testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) outputContains(want string) error {
	if !strings.Contains(testCtx.LastOutput, want) {
		return fmt.Errorf("output does not contain %q:\n%s", want, testCtx.LastOutput)
	}
	return nil
}
