package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-ledger/internal/types"
)

const maxRequestBodyBytes = 1 << 20

type handlers struct {
	service LedgerService
}

type handlerFunc func(r *http.Request) (any, *types.Error)

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func registerHandler(handler handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := handler(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, dataResponse{Data: result})
	}
}

func (h *handlers) execute(r *http.Request) (any, *types.Error) {
	var req types.ExecuteRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		return nil, types.NewBadRequestError(fmt.Errorf("invalid execute request: %w", err))
	}
	if req.Sender == "" {
		return nil, types.NewErrorWithMsg(http.StatusBadRequest, types.BadRequest, "sender is required")
	}
	return h.service.Execute(r.Context(), &req)
}

func (h *handlers) acknowledgeTransfer(r *http.Request) (any, *types.Error) {
	id := chi.URLParam(r, "id")
	if err := h.service.AcknowledgeTransfer(r.Context(), id); err != nil {
		return nil, err
	}
	return id, nil
}

func (h *handlers) getConfig(r *http.Request) (any, *types.Error) {
	return h.service.GetConfig(r.Context())
}

func (h *handlers) getState(r *http.Request) (any, *types.Error) {
	return h.service.GetState(r.Context())
}

func (h *handlers) getAccountState(r *http.Request) (any, *types.Error) {
	return h.service.GetAccountState(r.Context(), chi.URLParam(r, "address"))
}

func (h *handlers) healthcheck(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Healthcheck(r.Context()); err != nil {
		writeError(w, r, types.NewError(http.StatusServiceUnavailable, types.ServiceUnavailable, err))
		return
	}
	writeJSON(w, r, http.StatusOK, dataResponse{Data: "ok"})
}

func writeError(w http.ResponseWriter, r *http.Request, err *types.Error) {
	message := err.Error()
	if err.Status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	// internal details stay in the logs
	if err.ErrorCode == types.InternalServiceError {
		message = "internal service error"
	}
	writeJSON(w, r, err.Status, errorResponse{
		ErrorCode: err.ErrorCode.String(),
		Message:   message,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}
