package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

func TestToServiceError(t *testing.T) {
	assert.Nil(t, toServiceError(nil))

	passthrough := types.NewUnauthorizedError("nope")
	assert.Same(t, passthrough, toServiceError(fmt.Errorf("wrapped: %w", passthrough)))

	tests := []struct {
		err    error
		status int
		code   types.ErrorCode
	}{
		{fmt.Errorf("%w: need more", ledger.ErrInsufficientBalance), http.StatusBadRequest, types.InsufficientFunds},
		{ledger.ErrNothingStaked, http.StatusNotFound, types.NotFound},
		{ledger.ErrZeroAmount, http.StatusBadRequest, types.BadRequest},
		{ledger.ErrInvalidAddress, http.StatusBadRequest, types.BadRequest},
		{ledger.ErrInvalidConfig, http.StatusBadRequest, types.BadRequest},
		{ledger.ErrLockState, http.StatusBadRequest, types.BadRequest},
		{ledger.ErrInvalidPoolSync, http.StatusBadRequest, types.BadRequest},
		{fmt.Errorf("%w: 1000 shares outstanding", ledger.ErrPoolInsolvent), http.StatusServiceUnavailable, types.ServiceUnavailable},
		{&db.NotFoundError{Key: "t-1", Message: "dispatched transfer not found"}, http.StatusNotFound, types.NotFound},
		{errors.New("write conflict"), http.StatusInternalServerError, types.InternalServiceError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			serviceErr := toServiceError(tt.err)
			assert.Equal(t, tt.status, serviceErr.Status)
			assert.Equal(t, tt.code, serviceErr.ErrorCode)
			assert.ErrorIs(t, serviceErr, tt.err)
		})
	}
}
