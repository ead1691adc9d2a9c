package uow

import (
	"context"
	"errors"

	"github.com/Z3RO333/formularios/internal/domain/shared"
)

// ReadWithRetry runs a read-only fn and runs it once more when the first
// attempt fails with a storage error. Writes must never go through here.
func ReadWithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !errors.Is(err, shared.ErrStorage) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return err
	}
	return fn(ctx)
}
