package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsMatchesCopies(t *testing.T) {
	custom := ErrBuyerNotFound.WithMessage("buyer 42 is gone")
	require.ErrorIs(t, custom, ErrBuyerNotFound)
	assert.NotErrorIs(t, custom, ErrInvoiceNotFound)

	wrapped := fmt.Errorf("create invoice: %w", custom)
	require.ErrorIs(t, wrapped, ErrBuyerNotFound)
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := ErrEmptyImport.Wrap(cause)
	require.ErrorIs(t, err, ErrEmptyImport)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOfUnknown(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, KindValidation, KindOf(Validation("quantity missing")))
	assert.ErrorIs(t, Validation("x"), ErrValidation)
}
