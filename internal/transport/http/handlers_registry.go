package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custodia/internal/platform/middleware"
	"custodia/internal/registry"
	"custodia/internal/transport/http/shared"
	"custodia/pkg/domain"
)

// RegistryHandler exposes certificate lookups. Reads are public: holding a
// certificate is an on-ledger fact, not a secret.
type RegistryHandler struct {
	logger   *slog.Logger
	registry *registry.Service
}

func NewRegistryHandler(reg *registry.Service, logger *slog.Logger) *RegistryHandler {
	return &RegistryHandler{logger: logger, registry: reg}
}

// Register registers the registry routes with the chi router.
func (h *RegistryHandler) Register(r chi.Router) {
	r.Route("/registry", func(rr chi.Router) {
		rr.Use(middleware.Recovery(h.logger))
		rr.Use(middleware.RequestID)
		rr.Use(middleware.Logger(h.logger))

		rr.Get("/address", h.handleAddress)
		rr.Get("/certificates/{vault}", h.handleOwnerOf)
	})
}

func (h *RegistryHandler) handleAddress(w http.ResponseWriter, r *http.Request) {
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"address": h.registry.Address().String(),
	})
}

func (h *RegistryHandler) handleOwnerOf(w http.ResponseWriter, r *http.Request) {
	vaultAddr, err := domain.ParseAddress(chi.URLParam(r, "vault"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	holder, err := h.registry.OwnerOf(r.Context(), vaultAddr)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, certificateResponse{
		Vault:  vaultAddr.String(),
		Holder: holder.String(),
	})
}
