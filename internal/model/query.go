package model

import (
	"fmt"
	"time"
)

// TagLogic controls how multiple tags in a Query combine.
type TagLogic string

const (
	TagLogicAny TagLogic = "any"
	TagLogicAll TagLogic = "all"
)

// SortField selects the ordering of search results.
type SortField string

const (
	SortModified SortField = "modified"
	SortCreated  SortField = "created"
	SortTitle    SortField = "title"
	SortAccessed SortField = "accessed"
)

// Query describes a search over resources.
// Limit <= 0 means no limit.
type Query struct {
	Text      string
	Tags      []string
	Logic     TagLogic
	Class     ResourceClass // "" matches every class
	Sort      SortField     // defaults to SortModified
	Ascending bool
	Limit     int
	Offset    int
}

// Validate checks the enumerated fields.
func (q Query) Validate() error {
	switch q.Logic {
	case "", TagLogicAny, TagLogicAll:
	default:
		return fmt.Errorf("unknown tag logic %q", q.Logic)
	}
	switch q.Sort {
	case "", SortModified, SortCreated, SortTitle, SortAccessed:
	default:
		return fmt.Errorf("unknown sort field %q", q.Sort)
	}
	if q.Class != "" && !q.Class.Valid() {
		return fmt.Errorf("unknown resource class %q", q.Class)
	}
	if q.Offset < 0 {
		return fmt.Errorf("offset must not be negative")
	}
	return nil
}

// Page is one page of search results.
type Page struct {
	Resources []*Resource
	Total     int
	Limit     int
	Offset    int
}

// PossibleDuplicate is an advisory warning attached to an archival receipt
// when other resources share the archived content hash.
type PossibleDuplicate struct {
	ContentHash string
	ResourceIDs []string
}

func (d PossibleDuplicate) String() string {
	return fmt.Sprintf("content %s also held by %v", d.ContentHash, d.ResourceIDs)
}

// ArchivalReceipt describes one completed upload to the archival network.
type ArchivalReceipt struct {
	ResourceID  string
	LocationID  string
	Address     string
	Link        string
	ContentHash string
	Size        int64
	Cost        float64
	Tags        map[string]string
	ArchivedAt  time.Time
	Class       ResourceClass
	Duplicate   *PossibleDuplicate
}

// ArchivalCopy is one archival location of a resource, for history listings.
type ArchivalCopy struct {
	LocationID string
	Address    string
	Link       string
	Size       int64
	Cost       float64
	ArchivedAt time.Time
	IsPrimary  bool
}
