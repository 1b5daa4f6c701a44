package cerr

import (
	"errors"
	"fmt"

	"github.com/kazz187/volunteerdesk/pkg/storage"
)

func WrapStorageReadError(target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to read %s: %w", target, err))
}

func WrapStorageWriteError(target string, err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return NewError(Aborted, fmt.Sprintf("%s was modified concurrently, retry", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to write %s: %w", target, err))
}

func WrapStorageDeleteError(target string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return NewError(NotFound, fmt.Sprintf("%s not found", target), err)
	}
	return NewError(Internal, "server error", fmt.Errorf("failed to delete %s: %w", target, err))
}

// WrapDecodeError reports a stored document that could not be decoded.
func WrapDecodeError(target string, err error) error {
	return NewError(Internal, "server error", fmt.Errorf("failed to unmarshal %s: %w", target, err))
}
