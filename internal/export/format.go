// Package export renders resources into the formats users take out of the
// store: a restorable structured dump (JSON or CBOR), a plain list of
// primary locations, a browser bookmark file, and the legacy archive index.
// It also decodes the formats that can be imported back.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"jasper-go/internal/model"
)

// Format names an export format.
type Format string

const (
	FormatJSON         Format = "json"
	FormatCBOR         Format = "cbor"
	FormatList         Format = "list"
	FormatBookmarks    Format = "bookmarks"
	FormatArchiveIndex Format = "archive-index"
	// FormatDatabase is a copy of the database file. It is produced by the
	// store, not by Write.
	FormatDatabase Format = "database"
)

// Formats lists every format in display order.
var Formats = []Format{FormatJSON, FormatCBOR, FormatList, FormatBookmarks, FormatArchiveIndex, FormatDatabase}

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", name)
}

// Extension returns the file extension for f, without compression suffixes.
func (f Format) Extension() string {
	switch f {
	case FormatJSON, FormatArchiveIndex:
		return ".json"
	case FormatCBOR:
		return ".cbor"
	case FormatList:
		return ".txt"
	case FormatBookmarks:
		return ".html"
	case FormatDatabase:
		return ".db"
	}
	return ""
}

// Restorable reports whether files in this format can be imported back.
func (f Format) Restorable() bool {
	switch f {
	case FormatJSON, FormatCBOR, FormatArchiveIndex:
		return true
	}
	return false
}

// Options carry the context a writer needs beyond the resources.
type Options struct {
	GeneratedAt time.Time
	// Link turns an archival address into a browsable URL. Nil leaves
	// addresses as they are.
	Link func(address string) string
}

func (o Options) link(address string) string {
	if o.Link == nil {
		return address
	}
	return o.Link(address)
}

// Write renders resources to w in format f.
func Write(w io.Writer, f Format, resources []*model.Resource, opts Options) error {
	if opts.GeneratedAt.IsZero() {
		opts.GeneratedAt = time.Now().UTC()
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, resources, opts)
	case FormatCBOR:
		return writeCBOR(w, resources, opts)
	case FormatList:
		return writeList(w, resources)
	case FormatBookmarks:
		return writeBookmarks(w, resources, opts)
	case FormatArchiveIndex:
		return writeArchiveIndex(w, resources, opts)
	case FormatDatabase:
		return fmt.Errorf("database exports are written by the store")
	}
	return fmt.Errorf("unknown export format %q", f)
}
