package repositoryimpl

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/volunteerdesk/internal/content"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"
)

const contentPrefix = "content"

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", contentPrefix, id)
}

func (r *YAMLRepository) Create(ctx context.Context, rec *content.Record) error {
	data, err := encode(rec)
	if err != nil {
		return err
	}
	created, err := r.storage.CompareAndSwap(ctx, path(rec.ID), nil, data)
	if err != nil {
		return cerr.WrapStorageWriteError("content", err)
	}
	if !created {
		return cerr.NewError(cerr.AlreadyExists, "content already exists", nil)
	}
	return nil
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*content.Record, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("content", err)
	}
	return decode(data)
}

func (r *YAMLRepository) Update(ctx context.Context, id string, fn func(rec *content.Record) error) (*content.Record, error) {
	var updated *content.Record
	err := storage.Update(ctx, r.storage, path(id), content.MaxUpdateAttempts, func(current []byte) ([]byte, error) {
		rec, err := decode(current)
		if err != nil {
			return nil, err
		}
		if err := fn(rec); err != nil {
			return nil, err
		}
		data, err := encode(rec)
		if err != nil {
			return nil, err
		}
		updated = rec
		return data, nil
	})
	if err != nil {
		var cErr *cerr.Error
		switch {
		case errors.As(err, &cErr):
			return nil, err
		case errors.Is(err, storage.ErrNotFound):
			return nil, cerr.WrapStorageReadError("content", err)
		default:
			return nil, cerr.WrapStorageWriteError("content", err)
		}
	}
	return updated, nil
}

func (r *YAMLRepository) List(ctx context.Context, f content.Filter) ([]*content.Record, error) {
	paths, err := r.storage.List(ctx, contentPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("content", err)
	}
	records := make([]*content.Record, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return nil, cerr.WrapStorageReadError("content", err)
		}
		rec, err := decode(data)
		if err != nil {
			continue
		}
		if f.Match(rec) {
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})
	if f.Limit > 0 && len(records) > f.Limit {
		records = records[:f.Limit]
	}
	return records, nil
}

func encode(rec *content.Record) ([]byte, error) {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal content: %w", err))
	}
	return data, nil
}

func decode(data []byte) (*content.Record, error) {
	var rec content.Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, cerr.WrapDecodeError("content", err)
	}
	return &rec, nil
}
