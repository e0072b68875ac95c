package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/app"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/go-chi/chi/v5"
)

// InventoryPlanner is the provisioning surface: shows and slot capacity.
type InventoryPlanner interface {
	CreateShow(ctx context.Context, in app.CreateShowInput) (domain.Show, error)
	ListShows(ctx context.Context, orgID string) ([]domain.Show, error)
	ProvisionSlot(ctx context.Context, in app.ProvisionSlotInput) (domain.InventorySlot, error)
	ListSlots(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error)
}

func HandleCreateShow(svc InventoryPlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createShowRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		show, err := svc.CreateShow(r.Context(), app.CreateShowInput{
			OrgID: chi.URLParam(r, "orgID"),
			Name:  req.Name,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toShowResponse(show))
	}
}

func HandleListShows(svc InventoryPlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shows, err := svc.ListShows(r.Context(), chi.URLParam(r, "orgID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]showResponse, 0, len(shows))
		for _, show := range shows {
			resp = append(resp, toShowResponse(show))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func HandleProvisionSlot(svc InventoryPlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req provisionSlotRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		airDate, err := time.Parse(dateLayout, req.AirDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid air_date")
			return
		}

		slot, err := svc.ProvisionSlot(r.Context(), app.ProvisionSlotInput{
			OrgID:         chi.URLParam(r, "orgID"),
			ShowID:        req.ShowID,
			AirDate:       airDate,
			PlacementType: domain.PlacementType(req.PlacementType),
			TotalSpots:    req.TotalSpots,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toSlotResponse(slot))
	}
}

func HandleListSlots(svc InventoryPlanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListSlots(r.Context(), chi.URLParam(r, "orgID"), r.URL.Query().Get("show_id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := make([]slotResponse, 0, len(slots))
		for _, slot := range slots {
			resp = append(resp, toSlotResponse(slot))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

type createShowRequest struct {
	Name string `json:"name"`
}

type showResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toShowResponse(show domain.Show) showResponse {
	return showResponse{ID: show.ID, Name: show.Name, CreatedAt: show.CreatedAt}
}

type provisionSlotRequest struct {
	ShowID        string `json:"show_id"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	TotalSpots    int    `json:"total_spots"`
}

type slotResponse struct {
	ID             string `json:"id"`
	ShowID         string `json:"show_id"`
	AirDate        string `json:"air_date"`
	PlacementType  string `json:"placement_type"`
	TotalSpots     int    `json:"total_spots"`
	AvailableSpots int    `json:"available_spots"`
	ReservedSpots  int    `json:"reserved_spots"`
	BookedSpots    int    `json:"booked_spots"`
}

func toSlotResponse(slot domain.InventorySlot) slotResponse {
	return slotResponse{
		ID:             slot.ID,
		ShowID:         slot.ShowID,
		AirDate:        slot.AirDate.Format(dateLayout),
		PlacementType:  string(slot.PlacementType),
		TotalSpots:     slot.TotalSpots,
		AvailableSpots: slot.AvailableSpots,
		ReservedSpots:  slot.ReservedSpots,
		BookedSpots:    slot.BookedSpots,
	}
}
