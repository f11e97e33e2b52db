package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tidwall/jsonc"

	"jasper-go/internal/model"
)

// ArchiveIndex is the legacy archive index: one entry per resource listing
// every upload of it.
type ArchiveIndex struct {
	Files []ArchiveEntry `json:"files"`
}

type ArchiveEntry struct {
	UUID   string        `json:"uuid"`
	Title  string        `json:"title"`
	Hashes []ArchiveHash `json:"arweave_hashes"`
}

type ArchiveHash struct {
	Hash      string `json:"hash"`
	Timestamp string `json:"timestamp"`
	Link      string `json:"link"`
}

// NewArchiveIndex lists the archival locations of resources. Resources that
// were never archived are left out.
func NewArchiveIndex(resources []*model.Resource, opts Options) *ArchiveIndex {
	idx := &ArchiveIndex{Files: []ArchiveEntry{}}
	for _, r := range resources {
		archived := r.LocationsOfType(model.LocationArchival)
		if len(archived) == 0 {
			continue
		}
		entry := ArchiveEntry{UUID: r.ID, Title: r.Title}
		for _, l := range archived {
			entry.Hashes = append(entry.Hashes, ArchiveHash{
				Hash:      l.Value,
				Timestamp: l.CreatedAt.UTC().Format(time.RFC3339Nano),
				Link:      opts.link(l.Value),
			})
		}
		idx.Files = append(idx.Files, entry)
	}
	return idx
}

func writeArchiveIndex(w io.Writer, resources []*model.Resource, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewArchiveIndex(resources, opts)); err != nil {
		return fmt.Errorf("encoding archive index: %w", err)
	}
	return nil
}

// timestampLayouts covers RFC 3339 and the offset-less ISO form older
// indexes were written with.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// DecodeArchiveIndex reads a legacy archive index, tolerating comments and
// trailing commas. Each entry becomes an archival-only resource whose newest
// upload is primary. Entries without uuid or uploads are skipped.
func DecodeArchiveIndex(r io.Reader) ([]*model.Resource, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading archive index: %w", err)
	}
	var idx ArchiveIndex
	if err := json.Unmarshal(jsonc.ToJSON(data), &idx); err != nil {
		return nil, fmt.Errorf("parsing archive index: %w", err)
	}

	var out []*model.Resource
	for _, e := range idx.Files {
		if e.UUID == "" || len(e.Hashes) == 0 {
			continue
		}
		res := &model.Resource{
			ID:                 e.UUID,
			Title:              e.Title,
			Accessible:         true,
			VerificationStatus: model.VerificationUnverified,
		}
		newest := 0
		for i, h := range e.Hashes {
			if h.Hash == "" {
				return nil, fmt.Errorf("entry %s: upload %d has no hash", e.UUID, i)
			}
			at, err := parseTimestamp(h.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("entry %s: %w", e.UUID, err)
			}
			res.Locations = append(res.Locations, model.Location{
				ResourceID: e.UUID,
				Type:       model.LocationArchival,
				Value:      h.Hash,
				Accessible: true,
				CreatedAt:  at,
			})
			if at.After(res.Locations[newest].CreatedAt) {
				newest = i
			}
			if res.CreatedAt.IsZero() || at.Before(res.CreatedAt) {
				res.CreatedAt = at
			}
			if at.After(res.ModifiedAt) {
				res.ModifiedAt = at
			}
		}
		res.Locations[newest].IsPrimary = true
		res.Class = model.DeriveClass(res.Locations)
		out = append(out, res)
	}
	return out, nil
}
