package store

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	appLog "evcal/internal/log"
	"evcal/internal/model"
)

// File persists events as a JSON document at Path. Every save rewrites the
// whole document; there are no partial writes and no retries.
type File struct {
	Path string

	// NewID generates ids for records that have none. Defaults to UUIDs.
	NewID func() string
}

// NewFile returns a File persister for path.
func NewFile(path string) *File {
	return &File{Path: path, NewID: uuid.NewString}
}

// Load reads the document. A missing file yields an empty list.
func (f *File) Load() ([]model.Event, error) {
	if f.Path == "" {
		return nil, errors.New("data file path is empty")
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			appLog.Info("data file not found; starting empty", "path", f.Path)
			return []model.Event{}, nil
		}
		return nil, fmt.Errorf("read data file: %w", err)
	}

	newID := f.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	events, err := Decode(bytes.NewReader(data), newID)
	if err != nil {
		appLog.Error("data file decode failed", err, "path", f.Path)
		return nil, err
	}

	appLog.Debug("data file loaded", "path", f.Path, "event_count", len(events))
	return events, nil
}

// Save overwrites the document with events in canonical order.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Writes atomically via a temp file + rename.
func (f *File) Save(events []model.Event) error {
	if f.Path == "" {
		return errors.New("data file path is empty")
	}

	var buf bytes.Buffer
	if err := Encode(&buf, events); err != nil {
		return fmt.Errorf("encode events: %w", err)
	}

	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".evcal-events-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.Path); err != nil {
		return fmt.Errorf("replace data file: %w", err)
	}

	appLog.Debug("data file saved", "path", f.Path, "event_count", len(events))
	return nil
}
