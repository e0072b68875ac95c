package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/app"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/go-chi/chi/v5"
)

const actorHeader = "X-Actor-ID"
const dateLayout = "2006-01-02"

// ReservationCreator is the minimal interface needed to create a hold.
type ReservationCreator interface {
	CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
}

// ReservationLister is the minimal interface needed to list reservations.
type ReservationLister interface {
	ListReservations(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, domain.Pagination, error)
}

// ReservationUpdater is the minimal interface needed to patch a held
// reservation.
type ReservationUpdater interface {
	UpdateReservation(ctx context.Context, in app.UpdateReservationInput) (domain.Reservation, error)
}

// HandleCreateReservation returns an HTTP handler for creating holds.
func HandleCreateReservation(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(actorHeader)
		if actor == "" {
			writeError(w, http.StatusBadRequest, codeActorRequired, "actor id required")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		in := app.CreateReservationInput{
			OrgID:             chi.URLParam(r, "orgID"),
			ActorID:           actor,
			AdvertiserID:      req.AdvertiserID,
			AgencyID:          req.AgencyID,
			CampaignID:        req.CampaignID,
			HoldDurationHours: req.HoldDurationHours,
			Priority:          req.Priority,
			Notes:             req.Notes,
		}
		for _, it := range req.Items {
			airDate, err := time.Parse(dateLayout, it.AirDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid air_date")
				return
			}
			in.Items = append(in.Items, app.ReservationItemInput{
				ShowID:        it.ShowID,
				EpisodeID:     it.EpisodeID,
				AirDate:       airDate,
				PlacementType: domain.PlacementType(it.PlacementType),
				LengthSeconds: it.LengthSeconds,
				Rate:          it.Rate,
			})
		}

		res, err := svc.CreateReservation(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(toReservationResponse(res))
	}
}

// HandleListReservations returns an HTTP handler for filtered listing.
func HandleListReservations(svc ReservationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := domain.ReservationFilter{
			Status:       domain.ReservationStatus(q.Get("status")),
			AdvertiserID: q.Get("advertiser_id"),
			CampaignID:   q.Get("campaign_id"),
		}
		f.Page, _ = strconv.Atoi(q.Get("page"))
		f.Limit, _ = strconv.Atoi(q.Get("limit"))

		items, pagination, err := svc.ListReservations(r.Context(), chi.URLParam(r, "orgID"), f)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := listReservationsResponse{
			Items: make([]reservationResponse, 0, len(items)),
			Pagination: paginationResponse{
				Page:       pagination.Page,
				Limit:      pagination.Limit,
				Total:      pagination.Total,
				TotalPages: pagination.TotalPages,
			},
		}
		for _, res := range items {
			resp.Items = append(resp.Items, toReservationResponse(res))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleUpdateReservation returns an HTTP handler for patching held
// reservations.
func HandleUpdateReservation(svc ReservationUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(actorHeader)
		if actor == "" {
			writeError(w, http.StatusBadRequest, codeActorRequired, "actor id required")
			return
		}

		var req updateReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.UpdateReservation(r.Context(), app.UpdateReservationInput{
			OrgID:         chi.URLParam(r, "orgID"),
			ActorID:       actor,
			ReservationID: chi.URLParam(r, "reservationID"),
			Patch: domain.ReservationPatch{
				CampaignID:        req.CampaignID,
				Priority:          req.Priority,
				Notes:             req.Notes,
				HoldDurationHours: req.HoldDurationHours,
			},
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toReservationResponse(res))
	}
}

type createReservationRequest struct {
	AdvertiserID      string                   `json:"advertiser_id"`
	AgencyID          string                   `json:"agency_id,omitempty"`
	CampaignID        string                   `json:"campaign_id,omitempty"`
	HoldDurationHours int                      `json:"hold_duration_hours,omitempty"`
	Priority          int                      `json:"priority,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
	Items             []reservationItemRequest `json:"items"`
}

type reservationItemRequest struct {
	ShowID        string `json:"show_id"`
	EpisodeID     string `json:"episode_id,omitempty"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	LengthSeconds int    `json:"length_seconds"`
	Rate          int64  `json:"rate"`
}

type updateReservationRequest struct {
	CampaignID        *string `json:"campaign_id"`
	Priority          *int    `json:"priority"`
	Notes             *string `json:"notes"`
	HoldDurationHours *int    `json:"hold_duration_hours"`
}

type reservationResponse struct {
	ID                string                    `json:"id"`
	AdvertiserID      string                    `json:"advertiser_id"`
	AgencyID          string                    `json:"agency_id,omitempty"`
	CampaignID        string                    `json:"campaign_id,omitempty"`
	Status            string                    `json:"status"`
	HoldDurationHours int                       `json:"hold_duration_hours"`
	ExpiresAt         time.Time                 `json:"expires_at"`
	TotalAmount       int64                     `json:"total_amount"`
	Priority          int                       `json:"priority"`
	Notes             string                    `json:"notes,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	Items             []reservationItemResponse `json:"items"`
}

type reservationItemResponse struct {
	ID            string `json:"id"`
	ShowID        string `json:"show_id"`
	EpisodeID     string `json:"episode_id,omitempty"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	LengthSeconds int    `json:"length_seconds"`
	Rate          int64  `json:"rate"`
	Status        string `json:"status"`
}

type listReservationsResponse struct {
	Items      []reservationResponse `json:"items"`
	Pagination paginationResponse    `json:"pagination"`
}

type paginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func toReservationResponse(res domain.Reservation) reservationResponse {
	resp := reservationResponse{
		ID:                res.ID,
		AdvertiserID:      res.AdvertiserID,
		AgencyID:          res.AgencyID,
		CampaignID:        res.CampaignID,
		Status:            string(res.Status),
		HoldDurationHours: res.HoldDurationHours,
		ExpiresAt:         res.ExpiresAt,
		TotalAmount:       res.TotalAmount,
		Priority:          res.Priority,
		Notes:             res.Notes,
		CreatedAt:         res.CreatedAt,
		Items:             make([]reservationItemResponse, 0, len(res.Items)),
	}
	for _, item := range res.Items {
		resp.Items = append(resp.Items, reservationItemResponse{
			ID:            item.ID,
			ShowID:        item.ShowID,
			EpisodeID:     item.EpisodeID,
			AirDate:       item.AirDate.Format(dateLayout),
			PlacementType: string(item.PlacementType),
			LengthSeconds: item.LengthSeconds,
			Rate:          item.Rate,
			Status:        string(item.Status),
		})
	}
	return resp
}
