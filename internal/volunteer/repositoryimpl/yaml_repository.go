package repositoryimpl

import (
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kazz187/volunteerdesk/internal/volunteer"
	"github.com/kazz187/volunteerdesk/pkg/cerr"
	"github.com/kazz187/volunteerdesk/pkg/storage"
)

const (
	volunteersPrefix = "volunteers"
	updateAttempts   = 5
)

type YAMLRepository struct {
	storage storage.Storage
}

func NewYAMLRepository(s storage.Storage) *YAMLRepository {
	return &YAMLRepository{storage: s}
}

func path(id string) string {
	return fmt.Sprintf("%s/%s.yaml", volunteersPrefix, id)
}

func (r *YAMLRepository) Get(ctx context.Context, id string) (*volunteer.Profile, error) {
	data, err := r.storage.Read(ctx, path(id))
	if err != nil {
		return nil, cerr.WrapStorageReadError("volunteer", err)
	}
	return decode(data)
}

// List returns every profile ordered by ID. Unreadable documents are skipped.
func (r *YAMLRepository) List(ctx context.Context) ([]*volunteer.Profile, error) {
	paths, err := r.storage.List(ctx, volunteersPrefix)
	if err != nil {
		return nil, cerr.WrapStorageReadError("volunteers", err)
	}
	profiles := make([]*volunteer.Profile, 0, len(paths))
	for _, p := range paths {
		data, err := r.storage.Read(ctx, p)
		if err != nil {
			continue
		}
		profile, err := decode(data)
		if err != nil {
			continue
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}

func (r *YAMLRepository) Upsert(ctx context.Context, p *volunteer.Profile) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal volunteer: %w", err))
	}
	if err := r.storage.Write(ctx, path(p.ID), data); err != nil {
		return cerr.WrapStorageWriteError("volunteer", err)
	}
	return nil
}

func (r *YAMLRepository) Update(ctx context.Context, id string, fn func(p *volunteer.Profile) error) (*volunteer.Profile, error) {
	var updated *volunteer.Profile
	err := storage.Update(ctx, r.storage, path(id), updateAttempts, func(current []byte) ([]byte, error) {
		p, err := decode(current)
		if err != nil {
			return nil, err
		}
		if err := fn(p); err != nil {
			return nil, err
		}
		data, err := yaml.Marshal(p)
		if err != nil {
			return nil, cerr.NewError(cerr.Internal, "server error", fmt.Errorf("failed to marshal volunteer: %w", err))
		}
		updated = p
		return data, nil
	})
	if err != nil {
		var cErr *cerr.Error
		if errors.As(err, &cErr) {
			return nil, err
		}
		if errors.Is(err, storage.ErrNotFound) {
			return nil, cerr.WrapStorageReadError("volunteer", err)
		}
		return nil, cerr.WrapStorageWriteError("volunteer", err)
	}
	return updated, nil
}

func decode(data []byte) (*volunteer.Profile, error) {
	var p volunteer.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, cerr.WrapDecodeError("volunteer", err)
	}
	return &p, nil
}
