package adapters

import (
	"fmt"
	"path/filepath"

	"github.com/abema/probe/core"
	"github.com/abema/probe/internal/file"
)

const (
	BodyExt      = ".json"
	MetaExt      = ".meta"
	ErrorLogName = "errors.log"
)

// LocalFileRecorder stores each body as <dir>/<stem>.json and its metadata line as <dir>/<stem>.meta.
// Attempts without a 2xx status are appended to <dir>/errors.log.
// The directory is created on first use.
func LocalFileRecorder(dir string, hash HashFunc) core.Recorder {
	return &localFileRecorder{
		BaseDir: dir,
		Hash:    hash,
	}
}

type localFileRecorder struct {
	BaseDir string
	Hash    HashFunc
}

func (r *localFileRecorder) Create(endpoint string) (core.Recording, error) {
	stem := filepath.Join(r.BaseDir, Stem(endpoint, r.Hash))
	body, err := file.CreateAtomic(stem+BodyExt, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create body file: %w", err)
	}
	return &localFileRecording{
		body:     body,
		metaPath: stem + MetaExt,
	}, nil
}

func (r *localFileRecorder) RecordFailure(meta *core.Meta) error {
	name := filepath.Join(r.BaseDir, ErrorLogName)
	f, err := file.Append(name)
	if err != nil {
		return fmt.Errorf("failed to open error log: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s %s\n", meta.Status(), meta.Endpoint); err != nil {
		return fmt.Errorf("failed to write error log: %w", err)
	}
	return nil
}

type localFileRecording struct {
	body     *file.Atomic
	metaPath string
}

func (r *localFileRecording) Write(p []byte) (int, error) {
	return r.body.Write(p)
}

func (r *localFileRecording) Commit(meta *core.Meta) (string, error) {
	if err := r.body.Commit(); err != nil {
		return "", fmt.Errorf("failed to store body: %w", err)
	}
	if err := file.WriteAtomic(r.metaPath, []byte(meta.Line()+"\n"), 0644); err != nil {
		return "", fmt.Errorf("failed to store metadata: %w", err)
	}
	return r.body.Name(), nil
}

func (r *localFileRecording) Discard() error {
	return r.body.Discard()
}
