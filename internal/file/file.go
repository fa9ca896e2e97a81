package file

import (
	"fmt"
	"os"
	"path/filepath"
)

func Open(name string) (*os.File, error) {
	return os.OpenFile(name, os.O_RDONLY, 0)
}

func Append(name string) (*os.File, error) {
	return OpenFile(name, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
}

// OpenFile creates the parent directory of name before opening it.
func OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(name, flag, perm)
}

// Atomic is a file which appears under its final name only when Commit succeeds.
// Writes go to a temporary file in the same directory so the rename stays on one filesystem.
type Atomic struct {
	tmp  *os.File
	name string
	perm os.FileMode
	done bool
}

func CreateAtomic(name string, perm os.FileMode) (*Atomic, error) {
	dir := filepath.Dir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	return &Atomic{tmp: tmp, name: name, perm: perm}, nil
}

func (a *Atomic) Write(p []byte) (int, error) {
	return a.tmp.Write(p)
}

// Name returns the final path.
func (a *Atomic) Name() string {
	return a.name
}

func (a *Atomic) Commit() error {
	if a.done {
		return fmt.Errorf("already closed: %s", a.name)
	}
	a.done = true
	tmpPath := a.tmp.Name()
	if err := a.tmp.Sync(); err != nil {
		a.tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := a.tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, a.perm); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, a.name); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Discard removes the temporary file. It is a no-op after Commit.
func (a *Atomic) Discard() error {
	if a.done {
		return nil
	}
	a.done = true
	a.tmp.Close()
	return os.Remove(a.tmp.Name())
}

func WriteAtomic(name string, data []byte, perm os.FileMode) error {
	a, err := CreateAtomic(name, perm)
	if err != nil {
		return err
	}
	if _, err := a.Write(data); err != nil {
		a.Discard()
		return err
	}
	return a.Commit()
}
