package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"jasper-go/internal/model"
)

// DumpVersion is the version of the structured dump layout.
const DumpVersion = 1

// Dump is the restorable structured export. It carries every stored field.
type Dump struct {
	Version    int              `json:"version"`
	ExportedAt time.Time        `json:"exported_at"`
	Resources  []ResourceRecord `json:"resources"`
}

type ResourceRecord struct {
	ID                 string           `json:"id"`
	ContentHash        string           `json:"content_hash,omitempty"`
	Title              string           `json:"title"`
	Description        string           `json:"description,omitempty"`
	Class              string           `json:"class"`
	CreatedAt          time.Time        `json:"created_at"`
	ModifiedAt         time.Time        `json:"modified_at"`
	LastAccessedAt     *time.Time       `json:"last_accessed_at,omitempty"`
	Accessible         bool             `json:"accessible"`
	VerificationStatus string           `json:"verification_status"`
	Locations          []LocationRecord `json:"locations"`
	Tags               []string         `json:"tags"`
	Properties         []PropertyRecord `json:"properties,omitempty"`
}

type LocationRecord struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Value        string     `json:"value"`
	IsPrimary    bool       `json:"is_primary"`
	Accessible   bool       `json:"accessible"`
	LastVerified *time.Time `json:"last_verified,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	Size         int64      `json:"size,omitempty"`
	Cost         float64    `json:"cost,omitempty"`
}

type PropertyRecord struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewDump converts resources into a dump.
func NewDump(resources []*model.Resource, exportedAt time.Time) *Dump {
	d := &Dump{Version: DumpVersion, ExportedAt: exportedAt.UTC(), Resources: make([]ResourceRecord, 0, len(resources))}
	for _, r := range resources {
		d.Resources = append(d.Resources, NewRecord(r))
	}
	return d
}

// NewRecord converts a single resource into its serialized form.
func NewRecord(r *model.Resource) ResourceRecord {
	rec := ResourceRecord{
		ID:                 r.ID,
		ContentHash:        r.ContentHash,
		Title:              r.Title,
		Description:        r.Description,
		Class:              string(r.Class),
		CreatedAt:          r.CreatedAt.UTC(),
		ModifiedAt:         r.ModifiedAt.UTC(),
		LastAccessedAt:     r.LastAccessedAt,
		Accessible:         r.Accessible,
		VerificationStatus: string(r.VerificationStatus),
		Locations:          make([]LocationRecord, 0, len(r.Locations)),
		Tags:               append([]string{}, r.Tags...),
	}
	for _, l := range r.Locations {
		rec.Locations = append(rec.Locations, NewLocationRecord(l))
	}
	for _, p := range r.Properties {
		rec.Properties = append(rec.Properties, PropertyRecord{
			Key:       p.Key,
			Type:      string(p.Value.Type()),
			Value:     p.Value.String(),
			UpdatedAt: p.UpdatedAt.UTC(),
		})
	}
	return rec
}

// NewLocationRecord converts a single location.
func NewLocationRecord(l model.Location) LocationRecord {
	return LocationRecord{
		ID:           l.ID,
		Type:         string(l.Type),
		Value:        l.Value,
		IsPrimary:    l.IsPrimary,
		Accessible:   l.Accessible,
		LastVerified: l.LastVerified,
		CreatedAt:    l.CreatedAt.UTC(),
		Size:         l.Size,
		Cost:         l.Cost,
	}
}

// ToResources converts the dump back into resources. Class is derived from
// the locations, not taken from the file.
func (d *Dump) ToResources() ([]*model.Resource, error) {
	if d.Version > DumpVersion {
		return nil, fmt.Errorf("dump version %d is newer than supported version %d", d.Version, DumpVersion)
	}
	out := make([]*model.Resource, 0, len(d.Resources))
	for i, rec := range d.Resources {
		r, err := rec.toResource()
		if err != nil {
			return nil, fmt.Errorf("resource %d (%s): %w", i, rec.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

func (rec ResourceRecord) toResource() (*model.Resource, error) {
	if rec.ID == "" {
		return nil, fmt.Errorf("missing id")
	}
	if len(rec.Locations) == 0 {
		return nil, fmt.Errorf("no locations")
	}
	r := &model.Resource{
		ID:                 rec.ID,
		ContentHash:        rec.ContentHash,
		Title:              rec.Title,
		Description:        rec.Description,
		CreatedAt:          rec.CreatedAt,
		ModifiedAt:         rec.ModifiedAt,
		LastAccessedAt:     rec.LastAccessedAt,
		Accessible:         rec.Accessible,
		VerificationStatus: model.VerificationStatus(rec.VerificationStatus),
		Tags:               append([]string{}, rec.Tags...),
	}
	for _, l := range rec.Locations {
		t := model.LocationType(l.Type)
		if !t.Valid() {
			return nil, fmt.Errorf("unknown location type %q", l.Type)
		}
		r.Locations = append(r.Locations, model.Location{
			ID:           l.ID,
			ResourceID:   rec.ID,
			Type:         t,
			Value:        l.Value,
			IsPrimary:    l.IsPrimary,
			Accessible:   l.Accessible,
			LastVerified: l.LastVerified,
			CreatedAt:    l.CreatedAt,
			Size:         l.Size,
			Cost:         l.Cost,
		})
	}
	for _, p := range rec.Properties {
		v, err := model.ParsePropertyValue(model.PropertyType(p.Type), p.Value)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", p.Key, err)
		}
		r.Properties = append(r.Properties, model.Property{ResourceID: rec.ID, Key: p.Key, Value: v, UpdatedAt: p.UpdatedAt})
	}
	r.Class = model.DeriveClass(r.Locations)
	return r, nil
}

func writeJSON(w io.Writer, resources []*model.Resource, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDump(resources, opts.GeneratedAt)); err != nil {
		return fmt.Errorf("encoding json dump: %w", err)
	}
	return nil
}

// DecodeJSON reads a JSON dump.
func DecodeJSON(r io.Reader) ([]*model.Resource, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decoding json dump: %w", err)
	}
	return d.ToResources()
}
