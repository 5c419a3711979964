package api

import (
	"net/http"
	"strconv"

	"ms-boxoffice/internal/errs"
	"ms-boxoffice/internal/query"
	"ms-boxoffice/internal/utils"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	Query *query.Service
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.Query.ListEvents(r.Context())
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list events", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("events", events))
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	event, err := h.Query.GetEvent(r.Context(), eventID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch event", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("event", event))
}

func (h *Handler) ListTiers(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	tiers, err := h.Query.ListTiers(r.Context(), eventID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to list tiers", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("tiers", tiers))
}

func (h *Handler) SeatStatus(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	tierID, err := pathInt64(r, "tierID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid tier id", err.Error()))
		return
	}
	seatIndex, err := strconv.Atoi(chi.URLParam(r, "seatIndex"))
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid seat index", err.Error()))
		return
	}

	status, err := h.Query.SeatStatus(r.Context(), eventID, tierID, seatIndex)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch seat status", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("seat status", status))
}

func (h *Handler) SoldSeats(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	tierID, err := pathInt64(r, "tierID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid tier id", err.Error()))
		return
	}

	seats, err := h.Query.SoldSeats(r.Context(), eventID, tierID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch sold seats", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("sold seats", seats))
}

func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathInt64(r, "eventID")
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid event id", err.Error()))
		return
	}
	sales, err := h.Query.SalesSummary(r.Context(), eventID)
	if err != nil {
		utils.WriteJSON(w, errs.HTTPStatus(err), utils.ErrorResponse("failed to fetch sales summary", err.Error()))
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("sales summary", sales))
}
