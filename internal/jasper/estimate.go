package jasper

import (
	"context"
	"fmt"
	"math"
)

// CostEstimate summarizes the projected cost of archiving a set of resources.
type CostEstimate struct {
	Count      int
	TotalBytes int64
	TotalCost  float64
	Items      []CostItem
}

// CostItem is the estimate for one resource.
type CostItem struct {
	ResourceID string
	Title      string
	Size       int64
	Cost       float64
}

// Estimate prices the upload of each resource without uploading anything.
// External resources are fetched (and packaged) to learn their size.
func (c *ArchivalCoordinator) Estimate(ctx context.Context, ids []string) (*CostEstimate, error) {
	est := &CostEstimate{}
	for _, id := range ids {
		res, err := c.db.GetResource(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading resource: %w", err)
		}
		p, err := c.load(ctx, res)
		if err != nil {
			return nil, err
		}
		size := int64(len(p.body))
		cost, err := c.price(ctx, size)
		if err != nil {
			return nil, fmt.Errorf("estimating cost for %s: %w", id, err)
		}
		est.Items = append(est.Items, CostItem{ResourceID: id, Title: res.Title, Size: size, Cost: cost})
		est.Count++
		est.TotalBytes += size
		est.TotalCost += cost
	}
	return est, nil
}

// price asks the transport when it can estimate, otherwise charges per KiB.
func (c *ArchivalCoordinator) price(ctx context.Context, size int64) (float64, error) {
	if ce, ok := c.transport.(CostEstimator); ok {
		return ce.EstimateCost(ctx, size)
	}
	return EstimateBySize(size, c.cfg.CostPerKiB), nil
}

// EstimateBySize charges perKiB for every started KiB.
func EstimateBySize(size int64, perKiB float64) float64 {
	if size <= 0 {
		return 0
	}
	return math.Ceil(float64(size)/1024) * perKiB
}
