package model

import "time"

// ResourceClass is the lifecycle category of a resource. It is never stored;
// DeriveClass computes it from the resource's locations.
type ResourceClass string

const (
	ClassExternal         ResourceClass = "external"
	ClassInternal         ResourceClass = "internal"
	ClassExternalArchived ResourceClass = "external-archived"
	ClassInternalArchived ResourceClass = "internal-archived"
)

// IsArchived reports whether the class has at least one archival copy.
func (c ResourceClass) IsArchived() bool {
	return c == ClassExternalArchived || c == ClassInternalArchived
}

// IsHybrid is an alias for IsArchived: content reachable locally or remotely
// that also has a permanent archival copy.
func (c ResourceClass) IsHybrid() bool { return c.IsArchived() }

// Valid reports whether c is one of the known classes.
func (c ResourceClass) Valid() bool {
	switch c {
	case ClassExternal, ClassInternal, ClassExternalArchived, ClassInternalArchived:
		return true
	}
	return false
}

// LocationType identifies how a location's value is interpreted.
type LocationType string

const (
	LocationFilePath LocationType = "file-path"
	LocationHTTPURL  LocationType = "http-url"
	LocationArchival LocationType = "archival-address"
)

// Valid reports whether t is one of the known location types.
func (t LocationType) Valid() bool {
	switch t {
	case LocationFilePath, LocationHTTPURL, LocationArchival:
		return true
	}
	return false
}

// VerificationStatus records the outcome of the last reachability check.
type VerificationStatus string

const (
	VerificationVerified   VerificationStatus = "verified"
	VerificationUnverified VerificationStatus = "unverified"
	VerificationFailed     VerificationStatus = "failed"
)

// Resource is the identity-bearing record for one piece of content.
type Resource struct {
	ID                 string // UUID, immutable
	ContentHash        string // "" when the content has not been hashed yet
	Title              string
	Description        string
	Class              ResourceClass
	CreatedAt          time.Time
	ModifiedAt         time.Time
	LastAccessedAt     *time.Time
	Accessible         bool
	VerificationStatus VerificationStatus
	Locations          []Location
	Tags               []string
	Properties         []Property
}

// PrimaryLocation returns the primary location, or nil if none is loaded.
func (r *Resource) PrimaryLocation() *Location {
	for i := range r.Locations {
		if r.Locations[i].IsPrimary {
			return &r.Locations[i]
		}
	}
	return nil
}

// LocationsOfType returns the locations with the given type, in stored order.
func (r *Resource) LocationsOfType(t LocationType) []Location {
	var out []Location
	for _, l := range r.Locations {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}

// HasTag reports whether the resource carries the given normalized tag.
func (r *Resource) HasTag(name string) bool {
	for _, t := range r.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// Property returns the property with the given key.
func (r *Resource) Property(key string) (Property, bool) {
	for _, p := range r.Properties {
		if p.Key == key {
			return p, true
		}
	}
	return Property{}, false
}

// DeriveClass computes the resource class from a set of locations.
// Any archival address makes the resource archived; a file path makes it
// internal; everything else is external.
func DeriveClass(locations []Location) ResourceClass {
	var archived, local bool
	for _, l := range locations {
		switch l.Type {
		case LocationArchival:
			archived = true
		case LocationFilePath:
			local = true
		}
	}
	switch {
	case archived && local:
		return ClassInternalArchived
	case archived:
		return ClassExternalArchived
	case local:
		return ClassInternal
	default:
		return ClassExternal
	}
}

// Location is a place the resource's bytes can currently be retrieved from.
type Location struct {
	ID           string
	ResourceID   string
	Type         LocationType
	Value        string
	IsPrimary    bool
	Accessible   bool
	LastVerified *time.Time
	CreatedAt    time.Time

	// Archival metadata, zero for other location types.
	Size int64
	Cost float64
}

// Tag is a global label with usage statistics.
type Tag struct {
	Name       string
	UsageCount int64
	LastUsed   *time.Time
}

// ResourceUpdate carries the user-editable scalar fields of a resource.
// Nil fields are left unchanged.
type ResourceUpdate struct {
	Title       *string
	Description *string
	ContentHash *string
}

// Empty reports whether the update changes nothing.
func (u ResourceUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.ContentHash == nil
}
