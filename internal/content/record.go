package content

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultKind = "article"

// NewRecord stores a new content record without a task.
func NewRecord(ctx context.Context, repo Repository, title, kind, authorID string) (*Record, error) {
	if kind == "" {
		kind = defaultKind
	}
	now := time.Now()
	rec := &Record{
		ID:        ulid.Make().String(),
		Title:     title,
		Kind:      kind,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
