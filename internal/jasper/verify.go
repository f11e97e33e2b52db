package jasper

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"jasper-go/internal/model"
)

// DefaultVerifyConcurrency bounds simultaneous reachability checks.
const DefaultVerifyConcurrency = 8

// VerifyOptions scopes a verification run.
type VerifyOptions struct {
	// IDs restricts the run to these resources. Empty checks every location.
	IDs         []string
	Concurrency int
	// IncludeArchival probes gateway links of archival addresses too.
	IncludeArchival bool
}

// VerifyFailure is one unreachable location.
type VerifyFailure struct {
	ResourceID string
	LocationID string
	Type       model.LocationType
	Value      string
	Reason     string
}

// VerifyReport summarises a verification run.
type VerifyReport struct {
	Checked    int
	Accessible int
	Failures   []VerifyFailure
}

// Verify checks that locations still answer and records the outcome on each
// location and its resource. Archival addresses are permanent and are only
// probed when IncludeArchival is set.
func (m *LifecycleManager) Verify(ctx context.Context, opts VerifyOptions) (*VerifyReport, error) {
	locations, err := m.verifiable(ctx, opts)
	if err != nil {
		return nil, err
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultVerifyConcurrency
	}

	var (
		mu     sync.Mutex
		report VerifyReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, loc := range locations {
		g.Go(func() error {
			reason := m.check(gctx, loc)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ok := reason == ""
			if err := m.db.SetLocationStatus(gctx, loc.ID, ok, m.clock.Now()); err != nil {
				return fmt.Errorf("recording status of location %s: %w", loc.ID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checked++
			if ok {
				report.Accessible++
				return nil
			}
			report.Failures = append(report.Failures, VerifyFailure{
				ResourceID: loc.ResourceID,
				LocationID: loc.ID,
				Type:       loc.Type,
				Value:      loc.Value,
				Reason:     reason,
			})
			m.logger.Warn("location unreachable", "resource", loc.ResourceID, "location", loc.Value, "reason", reason)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	m.logger.Info("verification finished", "checked", report.Checked, "failed", len(report.Failures))
	return &report, nil
}

func (m *LifecycleManager) verifiable(ctx context.Context, opts VerifyOptions) ([]model.Location, error) {
	wanted := func(t model.LocationType) bool {
		return t != model.LocationArchival || opts.IncludeArchival
	}

	var out []model.Location
	if len(opts.IDs) > 0 {
		for _, id := range opts.IDs {
			res, err := m.db.GetResource(ctx, id)
			if err != nil {
				return nil, err
			}
			for _, l := range res.Locations {
				if wanted(l.Type) {
					out = append(out, l)
				}
			}
		}
		return out, nil
	}

	for _, t := range []model.LocationType{model.LocationFilePath, model.LocationHTTPURL, model.LocationArchival} {
		if !wanted(t) {
			continue
		}
		locs, err := m.db.ListLocations(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("listing %s locations: %w", t, err)
		}
		out = append(out, locs...)
	}
	return out, nil
}

// check returns "" when loc is reachable, otherwise the reason it is not.
func (m *LifecycleManager) check(ctx context.Context, loc model.Location) string {
	switch loc.Type {
	case model.LocationFilePath:
		path, err := m.fsmgr.Resolve(loc.Value)
		if err != nil {
			return err.Error()
		}
		if _, err := m.fsmgr.Stat(path); err != nil {
			return err.Error()
		}
		return ""
	case model.LocationHTTPURL:
		return m.probe(ctx, loc.Value)
	case model.LocationArchival:
		if m.archiver == nil {
			return ""
		}
		link := m.archiver.transport.Link(loc.Value)
		if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
			return ""
		}
		return m.probe(ctx, link)
	}
	return fmt.Sprintf("unknown location type %q", loc.Type)
}

func (m *LifecycleManager) probe(ctx context.Context, url string) string {
	if m.prober == nil {
		return "no prober configured"
	}
	if err := m.prober.Probe(ctx, url); err != nil {
		return err.Error()
	}
	return ""
}

// SetPathAccessible records that the file at path appeared or disappeared.
// It returns the number of locations updated.
func (m *LifecycleManager) SetPathAccessible(ctx context.Context, path string, accessible bool) (int, error) {
	locs, err := m.db.FindLocations(ctx, model.LocationFilePath, path)
	if err != nil {
		return 0, fmt.Errorf("finding locations for %s: %w", path, err)
	}
	now := m.clock.Now()
	for _, l := range locs {
		if err := m.db.SetLocationStatus(ctx, l.ID, accessible, now); err != nil {
			return 0, fmt.Errorf("updating location %s: %w", l.ID, err)
		}
	}
	return len(locs), nil
}

// WatchedPaths lists every file location, for the watcher to subscribe to.
func (m *LifecycleManager) WatchedPaths(ctx context.Context) ([]string, error) {
	locs, err := m.db.ListLocations(ctx, model.LocationFilePath)
	if err != nil {
		return nil, fmt.Errorf("listing file locations: %w", err)
	}
	seen := make(map[string]bool, len(locs))
	var paths []string
	for _, l := range locs {
		if !seen[l.Value] {
			seen[l.Value] = true
			paths = append(paths, l.Value)
		}
	}
	return paths, nil
}
