package api

import (
	"time"

	"jasper-go/internal/export"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

// The view types below are the JSON shapes shared by the HTTP API and the
// MCP tools. Resources use the export record so that an API response and a
// JSON dump describe a resource identically.

type PageView struct {
	Resources []export.ResourceRecord `json:"resources"`
	Total     int                     `json:"total"`
	Limit     int                     `json:"limit"`
	Offset    int                     `json:"offset"`
}

func NewPageView(p *model.Page) PageView {
	v := PageView{Resources: make([]export.ResourceRecord, 0, len(p.Resources)), Total: p.Total, Limit: p.Limit, Offset: p.Offset}
	for _, r := range p.Resources {
		v.Resources = append(v.Resources, export.NewRecord(r))
	}
	return v
}

type DuplicateView struct {
	ContentHash string   `json:"content_hash"`
	ResourceIDs []string `json:"resource_ids"`
}

type ReceiptView struct {
	ResourceID  string            `json:"resource_id"`
	LocationID  string            `json:"location_id"`
	Address     string            `json:"address"`
	Link        string            `json:"link"`
	ContentHash string            `json:"content_hash"`
	Size        int64             `json:"size"`
	Cost        float64           `json:"cost"`
	Tags        map[string]string `json:"tags"`
	ArchivedAt  time.Time         `json:"archived_at"`
	Class       string            `json:"class"`
	Duplicate   *DuplicateView    `json:"possible_duplicate,omitempty"`
}

func NewReceiptView(r *model.ArchivalReceipt) ReceiptView {
	v := ReceiptView{
		ResourceID:  r.ResourceID,
		LocationID:  r.LocationID,
		Address:     r.Address,
		Link:        r.Link,
		ContentHash: r.ContentHash,
		Size:        r.Size,
		Cost:        r.Cost,
		Tags:        r.Tags,
		ArchivedAt:  r.ArchivedAt.UTC(),
		Class:       string(r.Class),
	}
	if r.Duplicate != nil {
		v.Duplicate = &DuplicateView{ContentHash: r.Duplicate.ContentHash, ResourceIDs: r.Duplicate.ResourceIDs}
	}
	return v
}

type CopyView struct {
	LocationID string    `json:"location_id"`
	Address    string    `json:"address"`
	Link       string    `json:"link"`
	Size       int64     `json:"size"`
	Cost       float64   `json:"cost"`
	ArchivedAt time.Time `json:"archived_at"`
	IsPrimary  bool      `json:"is_primary"`
}

func NewHistoryView(copies []model.ArchivalCopy) []CopyView {
	out := make([]CopyView, 0, len(copies))
	for _, c := range copies {
		out = append(out, CopyView{
			LocationID: c.LocationID,
			Address:    c.Address,
			Link:       c.Link,
			Size:       c.Size,
			Cost:       c.Cost,
			ArchivedAt: c.ArchivedAt.UTC(),
			IsPrimary:  c.IsPrimary,
		})
	}
	return out
}

type EstimateItemView struct {
	ResourceID string  `json:"resource_id"`
	Title      string  `json:"title"`
	Size       int64   `json:"size"`
	Cost       float64 `json:"cost"`
}

type EstimateView struct {
	Count      int                `json:"count"`
	TotalBytes int64              `json:"total_bytes"`
	TotalCost  float64            `json:"total_cost"`
	Items      []EstimateItemView `json:"items"`
}

func NewEstimateView(e *jasper.CostEstimate) EstimateView {
	v := EstimateView{Count: e.Count, TotalBytes: e.TotalBytes, TotalCost: e.TotalCost, Items: make([]EstimateItemView, 0, len(e.Items))}
	for _, it := range e.Items {
		v.Items = append(v.Items, EstimateItemView{ResourceID: it.ResourceID, Title: it.Title, Size: it.Size, Cost: it.Cost})
	}
	return v
}

type VerifyFailureView struct {
	ResourceID string `json:"resource_id"`
	LocationID string `json:"location_id"`
	Type       string `json:"type"`
	Value      string `json:"value"`
	Reason     string `json:"reason"`
}

type VerifyView struct {
	Checked    int                 `json:"checked"`
	Accessible int                 `json:"accessible"`
	Failures   []VerifyFailureView `json:"failures"`
}

func NewVerifyView(r *jasper.VerifyReport) VerifyView {
	v := VerifyView{Checked: r.Checked, Accessible: r.Accessible, Failures: make([]VerifyFailureView, 0, len(r.Failures))}
	for _, f := range r.Failures {
		v.Failures = append(v.Failures, VerifyFailureView{
			ResourceID: f.ResourceID,
			LocationID: f.LocationID,
			Type:       string(f.Type),
			Value:      f.Value,
			Reason:     f.Reason,
		})
	}
	return v
}

type TagView struct {
	Name       string     `json:"name"`
	UsageCount int64      `json:"usage_count"`
	LastUsed   *time.Time `json:"last_used,omitempty"`
}

func NewTagsView(tags []model.Tag) []TagView {
	out := make([]TagView, 0, len(tags))
	for _, t := range tags {
		out = append(out, TagView{Name: t.Name, UsageCount: t.UsageCount, LastUsed: t.LastUsed})
	}
	return out
}

// PropertyInput is a typed property value as sent by clients. An empty
// Type infers the type from Value.
type PropertyInput struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
}

// Parse validates the textual value against its type.
func (p PropertyInput) Parse(key string) (model.PropertyValue, error) {
	if p.Type == "" {
		return model.InferPropertyValue(p.Value), nil
	}
	v, err := model.ParsePropertyValue(model.PropertyType(p.Type), p.Value)
	if err != nil {
		return model.PropertyValue{}, &jasper.InvalidInputError{Field: "properties." + key, Reason: err.Error()}
	}
	return v, nil
}
