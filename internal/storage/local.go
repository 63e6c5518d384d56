// Package storage keeps uploaded files on the local disk under one root.
// Paths handed out and accepted are relative to that root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var ErrOutsideRoot = errors.New("path escapes upload root")

type Local struct {
	Root string
}

func NewLocal(root string) (*Local, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Local{Root: abs}, nil
}

func (l *Local) resolve(rel string) (string, error) {
	full := filepath.Join(l.Root, filepath.FromSlash(rel))
	if full != l.Root && !strings.HasPrefix(full, l.Root+string(filepath.Separator)) {
		return "", ErrOutsideRoot
	}
	return full, nil
}

// Save writes r to dir/name. Data goes to a temp file first and is renamed
// into place, so the final path never holds a partial file.
func (l *Local) Save(dir, name string, r io.Reader) (string, error) {
	rel := filepath.ToSlash(filepath.Join(dir, SanitizeName(name)))
	full, err := l.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return "", err
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		cleanup()
		return "", err
	}
	return rel, nil
}

// Remove deletes one file. A missing file is an error.
func (l *Local) Remove(rel string) error {
	full, err := l.resolve(rel)
	if err != nil {
		return err
	}
	return os.Remove(full)
}

// RemoveAll deletes a directory tree. A missing directory is not an error.
func (l *Local) RemoveAll(dir string) error {
	full, err := l.resolve(dir)
	if err != nil {
		return err
	}
	if full == l.Root {
		return ErrOutsideRoot
	}
	return os.RemoveAll(full)
}

func (l *Local) Open(rel string) (*os.File, error) {
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

// Path returns the absolute location of rel.
func (l *Local) Path(rel string) (string, error) {
	return l.resolve(rel)
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeName strips directories and replaces anything outside a
// conservative character set.
func SanitizeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.TrimLeft(name, ".")
	if name == "" || name == "_" {
		return "file"
	}
	return name
}

func MediaDir(taskID int) string { return fmt.Sprintf("media/%d", taskID) }

func LogoDir(companyID int) string { return fmt.Sprintf("logos/%d", companyID) }

func ProfileDir(userID int) string { return fmt.Sprintf("profile_pics/%d", userID) }
