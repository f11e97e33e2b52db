package jasper

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"jasper-go/internal/export"
	"jasper-go/internal/model"
)

// ImportOptions controls how an import file is read.
type ImportOptions struct {
	// Format is json, cbor or archive-index. Empty detects it from the content.
	Format export.Format
	// Decryptor opens encrypted files. Nil means the file is not encrypted.
	Decryptor DecryptionContext
}

// ImportResult counts what an import did.
type ImportResult struct {
	Format   export.Format
	Imported int
	Skipped  int // ids already present
}

// Import restores resources from a dump or a legacy archive index.
// Compression is detected automatically. Resources whose id already exists
// are skipped, so importing the same file twice is harmless.
func (m *LifecycleManager) Import(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	if opts.Decryptor != nil {
		var plain bytes.Buffer
		if err := opts.Decryptor.Decrypt(r, &plain); err != nil {
			return nil, fmt.Errorf("decrypting import: %w", err)
		}
		r = &plain
	}

	dr, _, err := export.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("reading import: %w", err)
	}
	defer dr.Close()
	data, err := io.ReadAll(dr)
	if err != nil {
		return nil, fmt.Errorf("reading import: %w", err)
	}

	format := opts.Format
	if format == "" {
		format = detectImportFormat(data)
	}
	if !format.Restorable() {
		return nil, invalid("format", "%s files cannot be imported", format)
	}

	var resources []*model.Resource
	switch format {
	case export.FormatJSON:
		resources, err = export.DecodeJSON(bytes.NewReader(data))
	case export.FormatCBOR:
		resources, err = export.DecodeCBOR(bytes.NewReader(data))
	case export.FormatArchiveIndex:
		resources, err = export.DecodeArchiveIndex(bytes.NewReader(data))
	}
	if err != nil {
		return nil, invalid("file", "%v", err)
	}

	result := &ImportResult{Format: format}
	for _, res := range resources {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := normalizeImported(res); err != nil {
			return result, err
		}
		created, err := m.db.ImportResource(ctx, res)
		if err != nil {
			return result, fmt.Errorf("importing %s: %w", res.ID, err)
		}
		if created {
			result.Imported++
		} else {
			result.Skipped++
		}
	}
	m.logger.Info("import finished", "format", format, "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

// detectImportFormat tells JSON dumps, archive indexes and CBOR apart.
func detectImportFormat(data []byte) export.Format {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return export.FormatCBOR
	}
	if bytes.Contains(trimmed, []byte(`"resources"`)) {
		return export.FormatJSON
	}
	if bytes.Contains(trimmed, []byte(`"files"`)) {
		return export.FormatArchiveIndex
	}
	return export.FormatJSON
}

// normalizeImported applies the same tag and key rules as interactive edits.
func normalizeImported(res *model.Resource) error {
	seen := make(map[string]bool, len(res.Tags))
	tags := res.Tags[:0]
	for _, raw := range res.Tags {
		tag, err := NormalizeTag(raw)
		if err != nil {
			return fmt.Errorf("resource %s: %w", res.ID, err)
		}
		if !seen[tag] {
			seen[tag] = true
			tags = append(tags, tag)
		}
	}
	res.Tags = tags
	for i, p := range res.Properties {
		key, err := NormalizePropertyKey(p.Key)
		if err != nil {
			return fmt.Errorf("resource %s: %w", res.ID, err)
		}
		res.Properties[i].Key = key
	}
	return nil
}
