package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"jasper-go/internal/jasper"
)

// IgnoreFileName is read from the root of directories added in bulk.
const IgnoreFileName = ".jasperignore"

// OSFilesystemManager resolves and reads files on the local filesystem.
type OSFilesystemManager struct {
	home string
}

// NewOSFilesystemManager creates a manager that expands "~" to the user's
// home directory when it can be determined.
func NewOSFilesystemManager() *OSFilesystemManager {
	home, _ := os.UserHomeDir()
	return &OSFilesystemManager{home: home}
}

func (m *OSFilesystemManager) expand(rawPath string) string {
	if m.home == "" {
		return rawPath
	}
	if rawPath == "~" {
		return m.home
	}
	if strings.HasPrefix(rawPath, "~/") {
		return filepath.Join(m.home, rawPath[2:])
	}
	return rawPath
}

// Resolve makes rawPath absolute and rejects special files. Symlinks are
// followed to their target.
func (m *OSFilesystemManager) Resolve(rawPath string) (*jasper.Path, error) {
	absPath, err := filepath.Abs(m.expand(strings.TrimSpace(rawPath)))
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no such file: %s", absPath)
		}
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return jasper.NewPath(absPath, info.IsDir(), info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *jasper.Path) (io.ReadCloser, error) {
	if path.IsDir() {
		return nil, fmt.Errorf("cannot open directory as file: %s", path.String())
	}
	return os.Open(path.String())
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path *jasper.Path) (fs.FileInfo, error) {
	return os.Stat(path.String())
}

// FindFiles lists regular files under dir in lexical order, skipping hidden
// directories and anything matched by the directory's ignore file.
func (m *OSFilesystemManager) FindFiles(dir *jasper.Path, recursive bool) ([]*jasper.Path, error) {
	if !dir.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir.String())
	}

	patterns, err := ReadIgnoreFile(filepath.Join(dir.String(), IgnoreFileName))
	if err != nil {
		return nil, err
	}
	ignore := NewIgnoreMatcher(append(append([]string{}, defaultIgnorePatterns...), patterns...))

	var paths []*jasper.Path
	err = filepath.WalkDir(dir.String(), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir.String() {
			return nil
		}
		rel, err := filepath.Rel(dir.String(), p)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !recursive || strings.HasPrefix(d.Name(), ".") || ignore.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || ignore.Match(rel, false) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", p, err)
		}
		paths = append(paths, jasper.NewPath(p, false, info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

var _ jasper.FilesystemManager = (*OSFilesystemManager)(nil)
