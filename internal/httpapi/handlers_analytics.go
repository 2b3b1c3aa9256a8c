package httpapi

import (
	"net/http"

	"kopilka/internal/core"
)

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	from, to, err := queryRange(r, "from", "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	totals, err := s.svc.Analytics.TotalsByType(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, totalsResponse{Income: totals.Income, Expense: totals.Expense})
}

func (s *Server) handleCategoryShares(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	typ, err := core.ParseTransactionType(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	from, to, err := queryRange(r, "from", "to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	shares, err := s.svc.Analytics.CategoryShares(r.Context(), userID, typ, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCategoryShareResponses(shares))
}

func (s *Server) handleComparePeriods(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	firstFrom, firstTo, err := queryRange(r, "first_from", "first_to")
	if err != nil {
		writeError(w, r, err)
		return
	}
	secondFrom, secondTo, err := queryRange(r, "second_from", "second_to")
	if err != nil {
		writeError(w, r, err)
		return
	}

	cmp, err := s.svc.Analytics.ComparePeriods(r.Context(), userID, firstFrom, firstTo, secondFrom, secondTo)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toComparisonResponse(cmp))
}
