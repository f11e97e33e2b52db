package jasper

import "io/fs"

// Path is a validated local filesystem path with the stat info captured when
// it was resolved. Paths come from FilesystemManager.Resolve.
type Path struct {
	absPath string
	isDir   bool
	info    fs.FileInfo
}

// NewPath is for FilesystemManager implementations.
func NewPath(absPath string, isDir bool, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, isDir: isDir, info: info}
}

func (p *Path) String() string { return p.absPath }

func (p *Path) IsDir() bool { return p.isDir }

// Info returns the stat info cached at resolution time.
func (p *Path) Info() fs.FileInfo { return p.info }
