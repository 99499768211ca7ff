package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
)

// maxIndexedDimensions is the largest vector column pgvector can build an HNSW index for.
const maxIndexedDimensions = 2000

// ErrInvalidDimensions is returned when the vector column size is out of range.
var ErrInvalidDimensions = errors.New("database: vector dimensions must be between 1 and 2000")

//go:embed schema.sql
var schemaSQL string

//go:embed vector_schema.sql
var vectorSchemaSQL string

// EnsureSchema creates the feedback and workflow checkpoint tables when missing.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	return nil
}

// VectorSchemaSQL renders the pgvector schema for the given embedding dimension.
func VectorSchemaSQL(dimensions int) (string, error) {
	if dimensions <= 0 || dimensions > maxIndexedDimensions {
		return "", fmt.Errorf("%w: got %d", ErrInvalidDimensions, dimensions)
	}

	return strings.ReplaceAll(vectorSchemaSQL, "{{dimensions}}", strconv.Itoa(dimensions)), nil
}

// EnsureVectorSchema enables pgvector and creates the embeddings table when missing.
func EnsureVectorSchema(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	sql, err := VectorSchemaSQL(dimensions)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to apply vector schema: %w", err)
	}

	return nil
}

// MigrateRiver applies River's own migrations (job and leader tables).
func MigrateRiver(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create river migrator: %w", err)
	}

	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil)
	if err != nil {
		return fmt.Errorf("failed to migrate river: %w", err)
	}

	for _, v := range res.Versions {
		slog.InfoContext(ctx, "river migration applied", "version", v.Version, "name", v.Name)
	}

	return nil
}
