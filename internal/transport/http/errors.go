package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

const (
	codeNotFound              = "not_found"
	codeInvalidRequestBody    = "invalid_request_body"
	codeActorRequired         = "actor_required"
	codeAdvertiserRequired    = "advertiser_required"
	codeNoItems               = "no_items"
	codeInvalidHoldDuration   = "invalid_hold_duration"
	codeInvalidPlacementType  = "invalid_placement_type"
	codeInvalidLength         = "invalid_length"
	codeInvalidRate           = "invalid_rate"
	codeInvalidSpotCount      = "invalid_spot_count"
	codeInvalidStatusFilter   = "invalid_status_filter"
	codeInvalidID             = "invalid_id"
	codeShowNameRequired      = "show_name_required"
	codeShowNotFound          = "show_not_found"
	codeSlotNotFound          = "slot_not_found"
	codeSlotAlreadyExists     = "slot_already_exists"
	codeReservationNotFound   = "reservation_not_found"
	codeInsufficientInventory = "insufficient_inventory"
	codeInvalidTransition     = "invalid_state_transition"
	codeReservationExpired    = "reservation_expired"
	codeInventoryCorrupt      = "inventory_corrupt"
	codeForbidden             = "forbidden"
	codeInternalError         = "internal_error"
)

type errorResponse struct {
	Error string     `json:"error"`
	Code  string     `json:"code"`
	Item  *errorItem `json:"item,omitempty"`
}

// errorItem identifies the requested spot that caused the failure.
type errorItem struct {
	Index         int    `json:"index"`
	ShowID        string `json:"show_id"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps service errors onto stable HTTP codes. Anything
// unmapped is a 500 with no detail leaked.
func writeDomainError(w http.ResponseWriter, err error) {
	var insufficient *domain.InsufficientInventoryError
	if errors.As(err, &insufficient) {
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error: insufficient.Error(),
			Code:  codeInsufficientInventory,
			Item: &errorItem{
				Index:         insufficient.ItemIndex,
				ShowID:        insufficient.ShowID,
				AirDate:       insufficient.AirDate.Format("2006-01-02"),
				PlacementType: string(insufficient.PlacementType),
			},
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrSlotNotFound):
		writeError(w, http.StatusNotFound, codeSlotNotFound, err.Error())
	case errors.Is(err, domain.ErrShowNotFound):
		writeError(w, http.StatusNotFound, codeShowNotFound, err.Error())
	case errors.Is(err, domain.ErrInsufficientInventory):
		writeError(w, http.StatusConflict, codeInsufficientInventory, err.Error())
	case errors.Is(err, domain.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrReservationExpired):
		writeError(w, http.StatusConflict, codeReservationExpired, err.Error())
	case errors.Is(err, domain.ErrSlotAlreadyExists):
		writeError(w, http.StatusConflict, codeSlotAlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInventoryCorrupt):
		writeError(w, http.StatusInternalServerError, codeInventoryCorrupt, err.Error())
	case errors.Is(err, domain.ErrActorRequired):
		writeError(w, http.StatusBadRequest, codeActorRequired, err.Error())
	case errors.Is(err, domain.ErrAdvertiserRequired):
		writeError(w, http.StatusBadRequest, codeAdvertiserRequired, err.Error())
	case errors.Is(err, domain.ErrNoItems):
		writeError(w, http.StatusBadRequest, codeNoItems, err.Error())
	case errors.Is(err, domain.ErrInvalidHoldDuration):
		writeError(w, http.StatusBadRequest, codeInvalidHoldDuration, err.Error())
	case errors.Is(err, domain.ErrInvalidPlacementType):
		writeError(w, http.StatusBadRequest, codeInvalidPlacementType, err.Error())
	case errors.Is(err, domain.ErrInvalidLength):
		writeError(w, http.StatusBadRequest, codeInvalidLength, err.Error())
	case errors.Is(err, domain.ErrInvalidRate):
		writeError(w, http.StatusBadRequest, codeInvalidRate, err.Error())
	case errors.Is(err, domain.ErrInvalidSpotCount):
		writeError(w, http.StatusBadRequest, codeInvalidSpotCount, err.Error())
	case errors.Is(err, domain.ErrInvalidStatusFilter):
		writeError(w, http.StatusBadRequest, codeInvalidStatusFilter, err.Error())
	case errors.Is(err, domain.ErrShowNameRequired):
		writeError(w, http.StatusBadRequest, codeShowNameRequired, err.Error())
	case errors.Is(err, domain.ErrOrgRequired), errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
