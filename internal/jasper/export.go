package jasper

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"jasper-go/internal/export"
	"jasper-go/internal/model"
)

// ExportOptions selects the output of an export.
type ExportOptions struct {
	Format      export.Format
	Compression export.Compression
	Encrypt     bool
}

// ExportResult describes a written export.
type ExportResult struct {
	Path   string // empty when written to a caller-supplied writer
	Format export.Format
	Count  int
	Bytes  int64
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// Export writes every resource matching q to a new file in dir. Pagination
// fields of q are ignored. The file name records the filter.
func (m *LifecycleManager) Export(ctx context.Context, q model.Query, dir string, opts ExportOptions) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	dest := filepath.Join(dir, m.ExportFilename(q, opts))

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return nil, fmt.Errorf("creating export file: %w", err)
	}
	tmpPath := tmp.Name()
	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	result, err := m.WriteExport(ctx, tmp, q, opts)
	if err != nil {
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("closing export file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return nil, fmt.Errorf("moving export into place: %w", err)
	}
	success = true

	result.Path = dest
	m.logger.Info("export written", "path", dest, "format", opts.Format, "count", result.Count, "bytes", result.Bytes)
	return result, nil
}

// ExportFilename names an export of q made now.
func (m *LifecycleManager) ExportFilename(q model.Query, opts ExportOptions) string {
	if opts.Format == "" {
		opts.Format = export.FormatJSON
	}
	if opts.Compression == "" {
		opts.Compression = export.CompressionNone
	}
	return export.Filename(q, opts.Format, opts.Compression, opts.Encrypt, m.clock.Now())
}

// WriteExport streams an export to w.
func (m *LifecycleManager) WriteExport(ctx context.Context, w io.Writer, q model.Query, opts ExportOptions) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = export.FormatJSON
	}
	if _, err := export.ParseFormat(string(opts.Format)); err != nil {
		return nil, invalid("format", "%v", err)
	}
	if opts.Compression == "" {
		opts.Compression = export.CompressionNone
	}
	if _, err := export.ParseCompression(string(opts.Compression)); err != nil {
		return nil, invalid("compression", "%v", err)
	}
	if opts.Encrypt && (m.encryptor == nil || !m.encryptor.IsConfigured()) {
		return nil, invalid("encrypt", "no encryption keys configured")
	}

	var plain bytes.Buffer
	cw, err := export.NewWriter(&plain, opts.Compression)
	if err != nil {
		return nil, err
	}

	var count int
	if opts.Format == export.FormatDatabase {
		count, err = m.writeDatabase(ctx, cw)
	} else {
		count, err = m.writeResources(ctx, cw, q, opts.Format)
	}
	if err != nil {
		return nil, err
	}
	if err := cw.Close(); err != nil {
		return nil, fmt.Errorf("finishing compression: %w", err)
	}

	out := &countingWriter{w: w}
	if opts.Encrypt {
		if err := m.encryptor.Encrypt(&plain, out); err != nil {
			return nil, fmt.Errorf("encrypting export: %w", err)
		}
	} else if _, err := plain.WriteTo(out); err != nil {
		return nil, fmt.Errorf("writing export: %w", err)
	}
	return &ExportResult{Format: opts.Format, Count: count, Bytes: out.n}, nil
}

func (m *LifecycleManager) writeResources(ctx context.Context, w io.Writer, q model.Query, f export.Format) (int, error) {
	resources, err := m.collect(ctx, q)
	if err != nil {
		return 0, err
	}
	opts := export.Options{GeneratedAt: m.clock.Now()}
	if m.archiver != nil {
		opts.Link = m.archiver.transport.Link
	}
	if err := export.Write(w, f, resources, opts); err != nil {
		return 0, err
	}
	return len(resources), nil
}

// collect pages through every resource matching q.
func (m *LifecycleManager) collect(ctx context.Context, q model.Query) ([]*model.Resource, error) {
	q, err := m.normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	q.Limit = MaxSearchLimit
	q.Offset = 0

	var all []*model.Resource
	for {
		page, err := m.db.Search(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("collecting resources: %w", err)
		}
		all = append(all, page.Resources...)
		if len(page.Resources) < q.Limit || len(all) >= page.Total {
			return all, nil
		}
		q.Offset += len(page.Resources)
	}
}

// writeDatabase copies a consistent snapshot of the whole store.
// The schema must be current so the copy opens with the same binary.
func (m *LifecycleManager) writeDatabase(ctx context.Context, w io.Writer) (int, error) {
	if err := m.db.CheckMigrations(); err != nil {
		return 0, fmt.Errorf("database schema: %w", err)
	}

	dir, err := os.MkdirTemp("", "jasper-export-*")
	if err != nil {
		return 0, fmt.Errorf("creating snapshot directory: %w", err)
	}
	defer os.RemoveAll(dir)

	snapshot := filepath.Join(dir, "jasper.db")
	if err := m.db.BackupTo(snapshot); err != nil {
		return 0, fmt.Errorf("snapshotting database: %w", err)
	}
	f, err := os.Open(snapshot)
	if err != nil {
		return 0, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return 0, fmt.Errorf("copying snapshot: %w", err)
	}

	page, err := m.db.Search(ctx, model.Query{Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("counting resources: %w", err)
	}
	return page.Total, nil
}
