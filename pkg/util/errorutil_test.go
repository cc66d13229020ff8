package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToDomainError_PassesDomainErrorsThrough(t *testing.T) {
	original := NewInvalidState("category inactive", map[string]any{"category_id": "c-1"})

	converted := ToDomainError(original)
	require.NotNil(t, converted)
	assert.Equal(t, "INVALID_STATE", converted.Code)
	assert.Equal(t, http.StatusConflict, converted.HTTPStatus)
}

func TestToDomainError_WrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("saving ticket: %w", NewOwnershipViolation(nil))

	converted := ToDomainError(wrapped)
	require.NotNil(t, converted)
	assert.Equal(t, "OWNERSHIP_VIOLATION", converted.Code)
	assert.Equal(t, http.StatusForbidden, converted.HTTPStatus)
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	converted := ToDomainError(pgx.ErrNoRows)
	require.NotNil(t, converted)
	assert.Equal(t, "NOT_FOUND", converted.Code)
	assert.Equal(t, http.StatusNotFound, converted.HTTPStatus)
}

func TestToDomainError_UnknownErrorBecomesInternal(t *testing.T) {
	cause := errors.New("connection refused")

	converted := ToDomainError(cause)
	require.NotNil(t, converted)
	assert.Equal(t, "INTERNAL_ERROR", converted.Code)
	assert.ErrorIs(t, converted, cause)
}

func TestToDomainError_Nil(t *testing.T) {
	assert.Nil(t, ToDomainError(nil))
	assert.NoError(t, MapError(nil))
}

func TestHasCode(t *testing.T) {
	err := NewConcurrencyExhausted("token allocation", nil)

	assert.True(t, HasCode(err, "CONCURRENCY_EXHAUSTED"))
	assert.False(t, HasCode(err, "NOT_FOUND"))
	assert.False(t, HasCode(errors.New("plain"), "NOT_FOUND"))
	assert.False(t, HasCode(nil, "NOT_FOUND"))
}

func TestDomainError_MessageFormatting(t *testing.T) {
	bare := &DomainError{Code: "X", Message: "boom"}
	assert.Equal(t, "boom", bare.Error())

	withCause := &DomainError{Code: "X", Message: "boom", Err: errors.New("root")}
	assert.Equal(t, "boom: root", withCause.Error())
	assert.Equal(t, "root", errors.Unwrap(withCause).Error())
}
