package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/libriscan/libriscan/internal/arbiter"
	"github.com/libriscan/libriscan/internal/bibdata"
	"github.com/libriscan/libriscan/internal/camera"
	"github.com/libriscan/libriscan/internal/session"
)

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a scanner session over a replayed frame stream",
	Long: `Start a scanner session fed by image files replayed as a camera stream.
The session runs continuous detection until the first ISBN is accepted,
debouncing duplicate detections of the same symbol.

With --manual the session waits and each Enter keypress captures one frame.

Examples:
  libriscan scan --frames "captures/*.png"
  libriscan scan --frames "captures/*.jpg" --fps 10 --loop --timeout 30s`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		pattern, _ := cmd.Flags().GetString("frames")
		if pattern == "" {
			return errors.New("--frames is required")
		}
		fps, _ := cmd.Flags().GetFloat64("fps")
		loop, _ := cmd.Flags().GetBool("loop")
		manual, _ := cmd.Flags().GetBool("manual")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		cfg := GetConfig()
		src := camera.NewFileSource(pattern, fps, loop)
		arb := arbiter.New(cfg.ArbiterConfig(), cfg.BuildBackends()...)

		sessCfg := cfg.SessionConfig()
		sessCfg.Continuous = !manual

		done := make(chan struct{})
		var scanned string
		sess := session.New(src, arb, sessCfg, session.Callbacks{
			OnScan: func(code string) {
				scanned = code
				close(done)
			},
			OnClose: func() {
				close(done)
			},
		})

		if err := sess.Start(cmd.Context()); err != nil {
			return fmt.Errorf("starting scanner session: %w", err)
		}
		defer sess.Close()

		if manual {
			if err := runManualCapture(cmd, sess); err != nil {
				return err
			}
		}

		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		defer signal.Stop(sigChan)

		var timeoutCh <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			timeoutCh = timer.C
		}

		select {
		case <-done:
		case sig := <-sigChan:
			fmt.Fprintf(cmd.ErrOrStderr(), "received %s, closing session\n", sig)
			sess.Close()
			<-done
		case <-timeoutCh:
			sess.Close()
			<-done
		}

		if scanned == "" {
			diag := sess.Diagnostics()
			if diag.SuggestManual {
				fmt.Fprintln(cmd.ErrOrStderr(), "hint: repeated misses; try --manual or better lighting")
			}
			return errors.New("session ended without a scan")
		}

		fmt.Fprintln(cmd.OutOrStdout(), scanned)
		if cfg.Lookup.Enabled {
			client := bibdata.NewClient(bibdata.Config{
				Endpoint: cfg.Lookup.Endpoint,
				Timeout:  time.Duration(cfg.Lookup.TimeoutSec) * time.Second,
			}, nil)
			if book, err := client.Lookup(cmd.Context(), scanned); err == nil && book.Title != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "title: %s\n", book.Title)
			}
		}
		return nil
	},
}

// runManualCapture drives one Capture per frame until a hit or the stream
// drains. Frame replay makes interactive pacing unnecessary.
func runManualCapture(cmd *cobra.Command, sess *session.Session) error {
	for {
		_, ok, err := sess.Capture(cmd.Context())
		if errors.Is(err, session.ErrNoFrame) {
			sess.Close()
			return nil
		}
		if err != nil {
			return err
		}
		if ok {
			// Delivery went through the OnScan callback.
			return nil
		}
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().String("frames", "", "glob of image files replayed as the camera stream")
	scanCmd.Flags().Float64("fps", 2, "replay frame rate")
	scanCmd.Flags().Bool("loop", false, "loop the frame files until a scan or timeout")
	scanCmd.Flags().Bool("manual", false, "manual capture mode instead of continuous detection")
	scanCmd.Flags().Duration("timeout", 0, "give up after this long (0 waits indefinitely)")
}
