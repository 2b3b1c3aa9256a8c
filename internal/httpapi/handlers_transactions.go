package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"kopilka/internal/core"
	"kopilka/internal/services"
)

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	var req createTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	in, err := toTransactionInput(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.svc.Transactions.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionResponse(tx))
}

func toTransactionInput(req createTransactionRequest) (services.TransactionInput, error) {
	var in services.TransactionInput
	var err error

	if in.Type, err = core.ParseTransactionType(req.Type); err != nil {
		return in, err
	}
	if in.Category, err = core.ParseCategory(req.Category); err != nil {
		return in, err
	}
	if in.InitialAmount, err = core.ParseAmount(req.Amount); err != nil {
		return in, err
	}
	if in.InitialCurrency, err = core.ParseCurrency(req.Currency); err != nil {
		return in, err
	}
	if req.DateTime != "" {
		if in.DateTime, err = parseTime(req.DateTime); err != nil {
			return in, err
		}
	}
	in.Description = req.Description
	return in, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := actingUser(r)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
		return
	}
	limit, offset := queryPage(r)

	txs, err := s.svc.Transactions.List(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponses(txs))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
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

	tx, err := s.svc.Transactions.Get(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
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
	var req updateTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	upd, err := toTransactionUpdate(req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.svc.Transactions.Update(r.Context(), userID, id, upd)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func toTransactionUpdate(req updateTransactionRequest) (services.TransactionUpdate, error) {
	var upd services.TransactionUpdate

	if req.Type != nil {
		typ, err := core.ParseTransactionType(*req.Type)
		if err != nil {
			return upd, err
		}
		upd.Type = &typ
	}
	if req.Category != nil {
		category, err := core.ParseCategory(*req.Category)
		if err != nil {
			return upd, err
		}
		upd.Category = &category
	}
	if req.Amount != nil {
		amount, err := core.ParseAmount(*req.Amount)
		if err != nil {
			return upd, err
		}
		upd.InitialAmount = &amount
	}
	if req.Currency != nil {
		currency, err := core.ParseCurrency(*req.Currency)
		if err != nil {
			return upd, err
		}
		upd.InitialCurrency = &currency
	}
	if req.DateTime != nil {
		dt, err := parseTime(*req.DateTime)
		if err != nil {
			return upd, err
		}
		upd.DateTime = &dt
	}
	upd.Description = req.Description
	return upd, nil
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Transactions.Delete(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
