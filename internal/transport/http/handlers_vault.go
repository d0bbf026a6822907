package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"custodia/internal/factory"
	"custodia/internal/platform/middleware"
	"custodia/internal/transport/http/shared"
	"custodia/internal/vault"
	"custodia/pkg/domain"
	dErrors "custodia/pkg/domain-errors"
)

// VaultHandler is the thin HTTP layer over the vault state machine. It parses
// and authenticates, then delegates; every custody rule lives in the service.
type VaultHandler struct {
	logger    *slog.Logger
	vaults    *vault.Service
	factory   *factory.Factory
	validator middleware.CallerValidator
}

func NewVaultHandler(vaults *vault.Service, f *factory.Factory, validator middleware.CallerValidator, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		logger:    logger,
		vaults:    vaults,
		factory:   f,
		validator: validator,
	}
}

// Register registers the vault routes with the chi router.
func (h *VaultHandler) Register(r chi.Router) {
	r.Route("/vaults", func(vr chi.Router) {
		vr.Use(middleware.Recovery(h.logger))
		vr.Use(middleware.RequestID)
		vr.Use(middleware.Logger(h.logger))
		vr.Use(middleware.ContentTypeJSON)
		vr.Use(middleware.RequireAuth(h.validator, h.logger))

		vr.Post("/", h.handleDeploy)
		vr.Get("/{address}", h.handleGet)
		vr.Get("/{address}/events", h.handleEvents)
		vr.Post("/{address}/withdrawals", h.handleWithdraw)
		vr.Put("/{address}/timelock", h.handleSetTimelock)
		vr.Post("/{address}/owner", h.handleTransferOwnership)
		vr.Post("/{address}/owner/registry", h.handleTransferToRegistry)
	})
}

func (h *VaultHandler) handleDeploy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	var req deployRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
			return
		}
	}

	owner := caller
	if req.Owner != "" {
		parsed, err := domain.ParseAddress(req.Owner)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		owner = parsed
	}

	v, err := h.factory.Deploy(ctx, owner)
	if err != nil {
		h.logError(r, "vault deploy failed", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, deployResponse{
		Address: v.Address.String(),
		Owner:   v.Owner.String(),
	})
}

func (h *VaultHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var tokens []domain.Address
	if raw := r.URL.Query().Get("tokens"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			token, err := domain.ParseAddress(part)
			if err != nil {
				shared.WriteError(w, err)
				return
			}
			tokens = append(tokens, token)
		}
	}

	snap, err := h.vaults.Snapshot(ctx, addr, tokens)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, newVaultResponse(snap))
}

func (h *VaultHandler) handleEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	events, err := h.vaults.Events(ctx, addr)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"events": newEventResponses(events),
	})
}

func (h *VaultHandler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req withdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if req.Asset == "" || req.Asset == domain.NativeAsset.String() {
		err = h.vaults.WithdrawNative(ctx, caller, addr, amount)
	} else {
		var token domain.Address
		token, err = domain.ParseAddress(req.Asset)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		err = h.vaults.WithdrawToken(ctx, caller, addr, token, amount)
	}
	if err != nil {
		h.logError(r, "withdrawal failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) handleSetTimelock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req timelockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}

	if err := h.vaults.SetUnlockTime(ctx, caller, addr, req.UnlockTime); err != nil {
		h.logError(r, "time-lock change failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) handleTransferOwnership(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req transferOwnershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	newOwner, err := domain.ParseAddress(req.NewOwner)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.vaults.TransferOwnership(ctx, caller, addr, newOwner); err != nil {
		h.logError(r, "ownership transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) handleTransferToRegistry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := middleware.GetCaller(ctx)

	addr, err := domain.ParseAddress(chi.URLParam(r, "address"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req registryTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "invalid request body"))
		return
	}
	registryAddr, err := domain.ParseAddress(req.Registry)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	if err := h.vaults.TransferOwnershipToRegistry(ctx, caller, addr, registryAddr); err != nil {
		h.logError(r, "registry ownership transfer failed", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *VaultHandler) logError(r *http.Request, msg string, err error) {
	h.logger.WarnContext(r.Context(), msg,
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}
