package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/babylonlabs-io/staking-ledger/internal/db"
	"github.com/babylonlabs-io/staking-ledger/internal/ledger"
	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// toServiceError maps engine and storage failures to api errors.
func toServiceError(err error) *types.Error {
	var serviceErr *types.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &serviceErr):
		return serviceErr
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return types.NewError(http.StatusBadRequest, types.InsufficientFunds, err)
	case errors.Is(err, ledger.ErrNothingStaked):
		return types.NewError(http.StatusNotFound, types.NotFound, err)
	case errors.Is(err, ledger.ErrZeroAmount),
		errors.Is(err, ledger.ErrInvalidAddress),
		errors.Is(err, ledger.ErrInvalidConfig),
		errors.Is(err, ledger.ErrLockState),
		errors.Is(err, ledger.ErrInvalidPoolSync):
		return types.NewBadRequestError(err)
	case errors.Is(err, ledger.ErrPoolInsolvent):
		return types.NewError(http.StatusServiceUnavailable, types.ServiceUnavailable, err)
	case db.IsNotFoundError(err):
		return types.NewError(http.StatusNotFound, types.NotFound, err)
	default:
		return types.NewInternalServiceError(err)
	}
}

func unauthorized(action, sender string) *types.Error {
	return types.NewUnauthorizedError(fmt.Sprintf("%s is not allowed to %s", sender, action))
}
