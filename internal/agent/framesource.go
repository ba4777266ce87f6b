package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Frame is one spooled camera frame.
type Frame struct {
	Path string
	Data []byte
}

// FrameSource supplies camera frames to submit.
type FrameSource interface {
	// Next returns the oldest pending frame, or nil when none is waiting.
	Next(ctx context.Context) (*Frame, error)
	// Discard removes a frame that has been handed to the server.
	Discard(frame *Frame) error
}

// DirectorySource reads frames the camera process spools into a directory.
// Files are consumed in name order; the camera writes timestamped names so
// that matches capture order.
type DirectorySource struct {
	dir string
}

// NewDirectorySource creates a frame source over the given spool directory.
func NewDirectorySource(dir string) *DirectorySource {
	return &DirectorySource{dir: dir}
}

// Next returns the oldest pending frame, or nil when the spool is empty.
func (s *DirectorySource) Next(ctx context.Context) (*Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read spool directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		if strings.HasSuffix(name, ".jpg") || strings.HasSuffix(name, ".jpeg") || strings.HasSuffix(name, ".png") {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, nil
	}
	sort.Strings(names)

	path := filepath.Join(s.dir, names[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read frame %s: %w", names[0], err)
	}

	return &Frame{Path: path, Data: data}, nil
}

// Discard removes a consumed frame from the spool.
func (s *DirectorySource) Discard(frame *Frame) error {
	if err := os.Remove(frame.Path); err != nil {
		return fmt.Errorf("remove frame: %w", err)
	}
	return nil
}
