package app

import (
	"fmt"
	"log"
	"strings"

	artifactcache "codesight/internal/cache/artifact"
	"codesight/internal/gateway/config"
	artifactrepo "codesight/internal/gateway/repository/artifact"
)

// initArtifactStore picks the archive origin from config and wraps it in
// the read-through cache. Preference order: S3 when fully configured,
// then postgres, then a local directory, then process memory.
func initArtifactStore(cfg *config.Config) (artifactrepo.Store, error) {
	origin, err := chooseArtifactOrigin(cfg)
	if err != nil {
		return nil, err
	}
	return artifactcache.NewCachedStore(origin, artifactcache.DefaultCacheConfig()), nil
}

func chooseArtifactOrigin(cfg *config.Config) (artifactrepo.Store, error) {
	if cfg.Artifact.CanUseS3() {
		s3Store, err := artifactrepo.NewS3Store(artifactrepo.S3Config{
			Endpoint:  cfg.Artifact.Endpoint,
			Region:    cfg.Artifact.Region,
			AccessKey: cfg.Artifact.AccessKey,
			SecretKey: cfg.Artifact.SecretKey,
			Bucket:    cfg.Artifact.Bucket,
			UseSSL:    cfg.Artifact.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize artifact s3 store: %w", err)
		}
		log.Printf("artifact store: s3 bucket=%s endpoint=%s", cfg.Artifact.Bucket, cfg.Artifact.Endpoint)
		return s3Store, nil
	}

	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		pg, err := artifactrepo.NewPostgresStore(dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open artifact db: %w", err)
		}
		log.Printf("artifact store: postgres")
		return pg, nil
	}

	if dir := strings.TrimSpace(cfg.ArtifactDir); dir != "" {
		log.Printf("artifact store: disk root=%s", dir)
		return artifactrepo.NewDiskStore(dir), nil
	}

	if cfg.Artifact.Enabled {
		log.Printf("artifact store: using in-memory fallback (s3 config incomplete)")
	}
	return artifactrepo.NewMemoryStore(), nil
}
