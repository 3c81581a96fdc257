package camera

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"github.com/libriscan/libriscan/internal/frame"
)

// DefaultFileFPS is the replay rate used when neither the source nor the
// open options specify one.
const DefaultFileFPS = 2.0

// FileDeviceID is the single device a FileSource exposes.
const FileDeviceID = "files"

// FileSource replays still images matching a glob pattern as a frame stream,
// standing in for a camera in the CLI and in tests.
type FileSource struct {
	pattern string
	fps     float64
	loop    bool
}

// NewFileSource creates a file-backed source. fps <= 0 uses DefaultFileFPS;
// loop replays the file list until the stream is stopped.
func NewFileSource(pattern string, fps float64, loop bool) *FileSource {
	if fps <= 0 {
		fps = DefaultFileFPS
	}
	return &FileSource{pattern: pattern, fps: fps, loop: loop}
}

func (s *FileSource) Devices(_ context.Context) ([]Device, error) {
	paths, err := s.matches()
	if err != nil {
		return nil, err
	}
	return []Device{{
		ID:     FileDeviceID,
		Label:  fmt.Sprintf("%s (%d frames)", s.pattern, len(paths)),
		Facing: FacingRear,
	}}, nil
}

func (s *FileSource) Open(ctx context.Context, deviceID string, opts OpenOptions) (Stream, error) {
	if deviceID != "" && deviceID != FileDeviceID {
		return nil, NewError(CategoryNoCamera, "unknown device "+deviceID, nil)
	}
	paths, err := s.matches()
	if err != nil {
		return nil, err
	}

	fps := s.fps
	if opts.FPS > 0 {
		fps = opts.FPS
	}

	runCtx, cancel := context.WithCancel(ctx)
	fs := &fileStream{
		device: Device{ID: FileDeviceID, Label: s.pattern, Facing: FacingRear},
		frames: make(chan *frame.Frame, 1),
		cancel: cancel,
	}
	fs.wg.Add(1)
	go fs.run(runCtx, paths, fps, s.loop)
	return fs, nil
}

func (s *FileSource) matches() ([]string, error) {
	paths, err := filepath.Glob(s.pattern)
	if err != nil {
		return nil, NewError(CategoryNoCamera, "bad frame pattern "+s.pattern, err)
	}
	if len(paths) == 0 {
		return nil, NewError(CategoryNoCamera, "no frames match "+s.pattern, nil)
	}
	sort.Strings(paths)
	return paths, nil
}

type fileStream struct {
	device   Device
	frames   chan *frame.Frame
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func (f *fileStream) Device() Device              { return f.device }
func (f *fileStream) Frames() <-chan *frame.Frame { return f.frames }

func (f *fileStream) Stop() {
	f.stopOnce.Do(func() {
		f.cancel()
		f.wg.Wait()
	})
}

func (f *fileStream) run(ctx context.Context, paths []string, fps float64, loop bool) {
	defer f.wg.Done()
	defer close(f.frames)

	interval := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, path := range paths {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			img, err := imaging.Open(path)
			if err != nil {
				slog.Warn("skipping unreadable frame file", "path", path, "error", err)
				continue
			}
			select {
			case f.frames <- frame.FromImage(img):
			case <-ctx.Done():
				return
			}
		}
		if !loop {
			return
		}
	}
}
