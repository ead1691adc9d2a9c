package persistence

import (
	"errors"

	"github.com/Z3RO333/formularios/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// translateError maps driver and GORM errors onto the domain taxonomy.
// Domain errors pass through untouched.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.NewConflictError("A record with the same unique value already exists", err)
	}
	return shared.NewStorageError(err)
}

// translateLookupError is translateError for single-row lookups, where a
// missing row becomes a NotFound error naming the entity.
func translateLookupError(err error, entity string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(entity, id)
	}
	return translateError(err)
}
