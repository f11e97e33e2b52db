package transport

import (
	"context"
	"fmt"
	"os"

	"jasper-go/internal/config"
	"jasper-go/internal/jasper"
)

// NewTransportFromConfig creates a Transport implementation based on the transport config type.
// S3 credentials are read from JASPER_S3_ACCESS_KEY_ID and JASPER_S3_SECRET_ACCESS_KEY when set.
func NewTransportFromConfig(ctx context.Context, cfg config.TransportConfig) (jasper.Transport, error) {
	name := cfg.Name
	if name == "" {
		name = cfg.Type
	}
	switch cfg.Type {
	case "memory":
		return NewMemoryTransport(name, cfg.Gateway), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem transport requires fs_root to be set")
		}
		return NewFileSystemTransport(name, cfg.FSRoot, cfg.Gateway)
	case "s3":
		return NewS3Transport(ctx, name, S3Options{
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			Gateway:         cfg.Gateway,
			AccessKeyID:     os.Getenv("JASPER_S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("JASPER_S3_SECRET_ACCESS_KEY"),
		})
	default:
		return nil, fmt.Errorf("unknown transport type: %s", cfg.Type)
	}
}
