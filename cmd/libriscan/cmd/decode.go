package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/bibdata"
	"github.com/libriscan/libriscan/internal/frame"
	"github.com/libriscan/libriscan/internal/isbn"
)

const (
	outputFormatJSON = "json"
	outputFormatText = "text"
)

// decodeResult is one file's outcome in the decode command output.
type decodeResult struct {
	File       string        `json:"file"`
	ISBN       string        `json:"isbn,omitempty"`
	ISBN13     string        `json:"isbn13,omitempty"`
	Format     string        `json:"format,omitempty"`
	Method     string        `json:"method,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Book       *bibdata.Book `json:"book,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// decodeCmd represents the decode command.
var decodeCmd = &cobra.Command{
	Use:   "decode [images...]",
	Short: "Decode ISBN barcodes from image files",
	Long: `Run one or more still images through the recognition backends and print
the accepted ISBN per file.

Supported formats: JPEG, PNG, BMP, TIFF

Examples:
  libriscan decode cover.jpg
  libriscan decode shelf/*.png --format json
  libriscan decode cover.jpg --lookup`,
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return errors.New("no input files provided")
		}

		cfg := GetConfig()

		format, _ := cmd.Flags().GetString("format")
		if format != outputFormatText && format != outputFormatJSON {
			return fmt.Errorf("invalid output format: %s (must be text or json)", format)
		}

		arb := arbiter.New(cfg.ArbiterConfig(), cfg.BuildBackends()...)

		var lookup *bibdata.Client
		wantLookup, _ := cmd.Flags().GetBool("lookup")
		if wantLookup || cfg.Lookup.Enabled {
			lookup = bibdata.NewClient(bibdata.Config{
				Endpoint: cfg.Lookup.Endpoint,
				Timeout:  time.Duration(cfg.Lookup.TimeoutSec) * time.Second,
			}, nil)
		}

		results := make([]decodeResult, 0, len(args))
		hits := 0
		for _, path := range args {
			res := decodeFile(cmd, arb, lookup, path)
			if res.ISBN != "" {
				hits++
			}
			results = append(results, res)
		}

		out := cmd.OutOrStdout()
		if file, _ := cmd.Flags().GetString("output"); file != "" {
			f, err := os.Create(file)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer func() { _ = f.Close() }()
			out = f
		}

		if err := writeDecodeResults(out, format, results); err != nil {
			return err
		}
		if hits == 0 {
			return fmt.Errorf("no ISBN recognized in %d file(s)", len(args))
		}
		return nil
	},
}

func decodeFile(cmd *cobra.Command, arb *arbiter.Arbiter, lookup *bibdata.Client, path string) decodeResult {
	res := decodeResult{File: path}

	img, err := imaging.Open(path)
	if err != nil {
		res.Error = fmt.Sprintf("opening image: %v", err)
		return res
	}

	outcome := arb.Recognize(cmd.Context(), frame.FromImage(img))
	if !outcome.OK() {
		res.Error = "no ISBN recognized"
		return res
	}

	cand := outcome.Candidate
	res.ISBN = isbn.Normalize(cand.Text)
	res.Format = cand.Format
	res.Method = cand.Method.String()
	res.Confidence = cand.Confidence
	if thirteen, ok := isbn.ToISBN13(res.ISBN); ok {
		res.ISBN13 = thirteen
	}

	if lookup != nil {
		if book, lerr := lookup.Lookup(cmd.Context(), res.ISBN); lerr == nil {
			res.Book = book
		}
	}
	return res
}

func writeDecodeResults(out io.Writer, format string, results []decodeResult) error {
	if format == outputFormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	for _, res := range results {
		if res.Error != "" {
			fmt.Fprintf(out, "%s: %s\n", res.File, res.Error)
			continue
		}
		fmt.Fprintf(out, "%s: %s (%s, %s, confidence %.2f)\n",
			res.File, res.ISBN, res.Format, res.Method, res.Confidence)
		if res.Book != nil && res.Book.Title != "" {
			fmt.Fprintf(out, "  title: %s\n", res.Book.Title)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
	decodeCmd.Flags().StringP("output", "o", "", "write results to file instead of stdout")
	decodeCmd.Flags().Bool("lookup", false, "fetch bibliographic metadata for recognized ISBNs")
}
