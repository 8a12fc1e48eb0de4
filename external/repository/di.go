package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"

	"github.com/sambhavnoobcoder/solvent-ai/internal/config"
	"github.com/sambhavnoobcoder/solvent-ai/internal/repository"
)

const databaseInitTimeout = 15 * time.Second

const (
	backendNone     = "none"
	backendPostgres = "postgres"
	backendSQLite   = "sqlite"
)

// archiveBackend maps ARCHIVE_DATABASE_URL to a driver and its DSN.
func archiveBackend(rawURL string) (backend, dsn string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		return backendNone, "", nil
	case strings.HasPrefix(rawURL, "postgres://"), strings.HasPrefix(rawURL, "postgresql://"):
		return backendPostgres, rawURL, nil
	case strings.HasPrefix(rawURL, "sqlite://"):
		path := strings.TrimPrefix(rawURL, "sqlite://")
		if path == "" {
			return "", "", fmt.Errorf("ARCHIVE_DATABASE_URL %q has no file path", rawURL)
		}
		return backendSQLite, path, nil
	default:
		return "", "", fmt.Errorf("ARCHIVE_DATABASE_URL scheme is not supported: %q", rawURL)
	}
}

func openRepository(ctx context.Context, rawURL string) (repository.Repository, error) {
	backend, dsn, err := archiveBackend(rawURL)
	if err != nil {
		return nil, err
	}
	switch backend {
	case backendPostgres:
		p, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunPostgresMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		return NewPostgresRepository(p), nil
	case backendSQLite:
		return OpenSQLite(ctx, dsn)
	default:
		return NoopRepository{}, nil
	}
}

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()

		repo, err := openRepository(ctx, cfg.ArchiveDatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Debug("archive repository ready", "type", fmt.Sprintf("%T", repo))
		return repo, nil
	})
}
