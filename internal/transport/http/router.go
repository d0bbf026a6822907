package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints: the vault custody surface, the
// certificate lookups, and the operational endpoints.
func NewRouter(vaults *VaultHandler, certs *RegistryHandler) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	vaults.Register(r)
	certs.Register(r)

	return r
}
