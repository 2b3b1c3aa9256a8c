package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kopilka/internal/core"
)

func (s *Server) handleRefreshRates(w http.ResponseWriter, r *http.Request) {
	refreshed, err := s.svc.Currency.Refresh(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"refreshed": refreshed})
}

func (s *Server) handleGetRate(w http.ResponseWriter, r *http.Request) {
	currency, err := core.ParseCurrency(chi.URLParam(r, "currency"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	rate, err := s.svc.Currency.GetRate(r.Context(), currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRateResponse(rate))
}
