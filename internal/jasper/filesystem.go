package jasper

import (
	"io"
	"io/fs"
)

// FilesystemManager abstracts local file access for internal resources.
type FilesystemManager interface {
	// Resolve makes rawPath absolute, stats it and rejects special files.
	Resolve(rawPath string) (*Path, error)

	// Open opens a regular file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info, unlike path.Info.
	Stat(path *Path) (fs.FileInfo, error)
}

// DirectoryLister is implemented by filesystem managers that can enumerate
// the files of a directory for bulk adds.
type DirectoryLister interface {
	FindFiles(dir *Path, recursive bool) ([]*Path, error)
}
