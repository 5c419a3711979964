package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"ms-boxoffice/internal/allocation"
	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/logger"
	"ms-boxoffice/internal/models"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Allocation *allocation.Service
	Logger     *logger.Logger
}

// Purchase handles POST /api/events/{eventID}/tiers/{tierID}/purchase.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	eventID, err := strconv.ParseInt(chi.URLParam(r, "eventID"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	tierID, err := strconv.ParseInt(chi.URLParam(r, "tierID"), 10, 64)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid tier id", err.Error()))
		return
	}

	var req models.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}
	req.EventID = eventID
	req.TierID = tierID

	tickets, err := h.Allocation.Purchase(r.Context(), req)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("purchase failed", err.Error()))
		return
	}

	if h.Logger != nil {
		h.Logger.LogPurchase(req.Buyer, eventID, tierID, len(tickets))
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("tickets issued", tickets))
}
