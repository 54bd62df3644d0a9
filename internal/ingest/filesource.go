package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/paisatrail/paisatrail/internal/model"
)

// capturedNotification is the on-disk shape written by the OS-level
// companion that observes notifications.
type capturedNotification struct {
	PackageName string `json:"package_name"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	PostedAt    int64  `json:"posted_at"`
}

// FileSource reads the most recent captured notification from a JSON file
// maintained by an external observer process. The file always holds at most
// one notification; earlier ones are overwritten before we ever see them.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// AccessEnabled reports whether the capture file is reachable. A missing
// file means the observer is not running or access was revoked.
func (f *FileSource) AccessEnabled() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// LastCaptured returns the current capture, or nil when the file is empty.
func (f *FileSource) LastCaptured() (*model.RawNotification, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var c capturedNotification
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode capture file: %w", err)
	}
	if c.PackageName == "" {
		return nil, nil
	}

	return &model.RawNotification{
		PackageName: c.PackageName,
		Title:       c.Title,
		Body:        c.Body,
		PostedAt:    c.PostedAt,
	}, nil
}
