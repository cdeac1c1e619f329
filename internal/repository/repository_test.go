package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/javajoker/beycollection/internal/apperrors"
)

func TestNotFoundOr(t *testing.T) {
	err := notFoundOr(gorm.ErrRecordNotFound, "beyblade.not_found", "Beyblade not found")
	assert.True(t, apperrors.IsNotFound(err))
	appErr, ok := apperrors.As(err)
	assert.True(t, ok)
	assert.Equal(t, "beyblade.not_found", appErr.Key)

	err = notFoundOr(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound), "collection.not_found", "Collection item not found")
	assert.True(t, apperrors.IsNotFound(err))

	cause := errors.New("connection refused")
	err = notFoundOr(cause, "beyblade.not_found", "Beyblade not found")
	assert.False(t, apperrors.IsNotFound(err))
	assert.ErrorIs(t, err, cause)
}

func TestDuplicateNameIsWrapped(t *testing.T) {
	err := fmt.Errorf("%w: %s", ErrDuplicateName, "Dran Sword 3-60F")
	assert.ErrorIs(t, err, ErrDuplicateName)
	assert.Contains(t, err.Error(), "Dran Sword 3-60F")
}

func TestAlreadyOwnedIsWrapped(t *testing.T) {
	err := fmt.Errorf("%w: %s", ErrAlreadyOwned, "0b8f6c1e-7d8a-4c55-9d4e-1a2b3c4d5e6f")
	assert.ErrorIs(t, err, ErrAlreadyOwned)
	assert.NotErrorIs(t, err, ErrDuplicateName)
}
