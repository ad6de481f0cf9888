package record

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// Uploader stores an object.
type Uploader interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) error
}

// S3Archiver uploads the entries of finished runs for off-host audit.
type S3Archiver struct {
	Uploader Uploader
	// Prefix is prepended to every object key.
	Prefix string
}

// Key returns the object key for one run.
func (a *S3Archiver) Key(procedure, target, runID string) string {
	return path.Join(strings.Trim(a.Prefix, "/"), sanitize(procedure), sanitize(target), runID+".jsonl")
}

// Archive uploads the entries belonging to runID.
func (a *S3Archiver) Archive(ctx context.Context, procedure, target, runID string, entries []Entry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	n := 0
	for _, e := range entries {
		if e.RunID != runID {
			continue
		}
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("encode record entry: %w", err)
		}
		n++
	}
	if n == 0 {
		return fmt.Errorf("no entries for run %s", runID)
	}

	key := a.Key(procedure, target, runID)
	if err := a.Uploader.PutObject(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return fmt.Errorf("archive run %s to %s: %w", runID, key, err)
	}
	return nil
}
