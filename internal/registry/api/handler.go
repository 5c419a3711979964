package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/registry"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Registry *registry.Service
}

func (h *Handler) parseTokenID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	tokenID, err := strconv.ParseInt(chi.URLParam(r, "tokenID"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid token id", err.Error()))
		return 0, false
	}
	return tokenID, true
}

func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}
	ticket, err := h.Registry.GetTicket(r.Context(), tokenID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch ticket", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket", ticket))
}

func (h *Handler) GetTicketOwner(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}
	ticket, err := h.Registry.GetTicket(r.Context(), tokenID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch ticket", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket owner", map[string]interface{}{
		"token_id": ticket.TokenID,
		"owner":    ticket.Owner,
	}))
}

// GetTicketQR serves the stored QR PNG for a ticket.
func (h *Handler) GetTicketQR(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}
	ticket, err := h.Registry.GetTicket(r.Context(), tokenID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch ticket", err.Error()))
		return
	}
	if len(ticket.QRCode) == 0 {
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("no QR code for ticket", ""))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ticket.QRCode)
}

func (h *Handler) ListTicketsByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "address")
	tickets, err := h.Registry.TicketsOf(r.Context(), owner)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch tickets", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tickets", tickets))
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	tokenID, ok := h.parseTokenID(w, r)
	if !ok {
		return
	}

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	ticket, err := h.Registry.Transfer(r.Context(), tokenID, req.From, req.To)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("transfer failed", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ticket transferred", ticket))
}
