package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

// LedgerService is what the api needs from services.Service.
type LedgerService interface {
	Execute(ctx context.Context, req *types.ExecuteRequest) (*types.ExecuteResponse, *types.Error)
	GetConfig(ctx context.Context) (*types.ConfigResponse, *types.Error)
	GetState(ctx context.Context) (*types.StateResponse, *types.Error)
	GetAccountState(ctx context.Context, address string) (*types.AccountStateResponse, *types.Error)
	AcknowledgeTransfer(ctx context.Context, id string) *types.Error
	Healthcheck(ctx context.Context) error
}

// NewRouter builds the api routes. Write routes act as whatever sender the
// request body names, so they must only be reachable by the trusted signer or
// relayer. When relayerToken is set those routes also require it as a bearer
// token.
func NewRouter(service LedgerService, relayerToken string) http.Handler {
	h := &handlers{service: service}

	r := chi.NewRouter()
	r.Use(traceMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/healthcheck", h.healthcheck)
	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(relayerAuthMiddleware(relayerToken))
			r.Post("/execute", registerHandler(h.execute))
			r.Post("/transfers/{id}/executed", registerHandler(h.acknowledgeTransfer))
		})
		r.Get("/config", registerHandler(h.getConfig))
		r.Get("/state", registerHandler(h.getState))
		r.Get("/stakers/{address}", registerHandler(h.getAccountState))
	})
	return r
}
