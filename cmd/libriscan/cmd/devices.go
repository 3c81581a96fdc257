package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/libriscan/libriscan/internal/backend"
	"github.com/libriscan/libriscan/internal/camera"
)

// devicesCmd represents the devices command.
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List capture devices and recognition capabilities",
	Long: `Enumerate the capture devices of a frame replay source and report which
recognition backends are available on this platform.

Examples:
  libriscan devices --frames "captures/*.png"
  libriscan devices --frames "captures/*.png" --format json`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pattern, _ := cmd.Flags().GetString("frames")
		if pattern == "" {
			return errors.New("--frames is required")
		}
		format, _ := cmd.Flags().GetString("format")

		src := camera.NewFileSource(pattern, 0, false)
		devices, err := src.Devices(cmd.Context())
		if err != nil {
			if cat, ok := camera.CategoryOf(err); ok {
				return fmt.Errorf("enumerating devices (%s): %w", cat, err)
			}
			return err
		}

		type report struct {
			Devices        []camera.Device `json:"devices"`
			NativeDetector bool            `json:"native_detector"`
		}
		r := report{
			Devices:        devices,
			NativeDetector: backend.NewNative().Supported(),
		}

		if format == outputFormatJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(r)
		}

		for _, d := range r.Devices {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", d.ID, d.Label, d.Facing)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "native detector: %v\n", r.NativeDetector)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().String("frames", "", "glob of image files exposed as a capture device")
	devicesCmd.Flags().StringP("format", "f", outputFormatText, "output format (text, json)")
}
