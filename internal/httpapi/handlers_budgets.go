package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kopilka/internal/core"
	"kopilka/internal/services"
)

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req createBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	period, err := core.ParseBudgetPeriod(req.Period)
	if err != nil {
		writeError(w, r, err)
		return
	}
	limit, err := core.ParseAmount(req.LimitAmount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.svc.Budgets.Create(r.Context(), userID, category, period, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetResponse(budget))
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	limit, offset := queryPage(r)

	budgets, err := s.svc.Budgets.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]budgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.svc.Budgets.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateBudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	upd, err := toBudgetUpdate(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	budget, err := s.svc.Budgets.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetResponse(budget))
}

func toBudgetUpdate(req updateBudgetRequest) (services.BudgetUpdate, error) {
	var upd services.BudgetUpdate

	if req.Category != nil {
		category, err := core.ParseCategory(*req.Category)
		if err != nil {
			return upd, err
		}
		upd.Category = &category
	}
	if req.Period != nil {
		period, err := core.ParseBudgetPeriod(*req.Period)
		if err != nil {
			return upd, err
		}
		upd.Period = &period
	}
	if req.LimitAmount != nil {
		limit, err := core.ParseAmount(*req.LimitAmount)
		if err != nil {
			return upd, err
		}
		upd.LimitAmount = &limit
	}
	return upd, nil
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Budgets.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
