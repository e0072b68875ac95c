package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/app"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ReservationConfirmer is the minimal interface needed to confirm a hold.
type ReservationConfirmer interface {
	ConfirmReservation(ctx context.Context, in app.ConfirmReservationInput) (app.ConfirmReservationResult, error)
}

// ReservationCanceller is the minimal interface needed to cancel a hold.
type ReservationCanceller interface {
	CancelReservation(ctx context.Context, in app.CancelReservationInput) (domain.Reservation, error)
}

// HandleConfirmReservation returns an HTTP handler for confirming holds. A
// retried confirm of an already-confirmed reservation answers 200 with the
// existing order instead of 201.
func HandleConfirmReservation(svc ReservationConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(actorHeader)
		if actor == "" {
			writeError(w, http.StatusBadRequest, codeActorRequired, "actor id required")
			return
		}

		res, err := svc.ConfirmReservation(r.Context(), app.ConfirmReservationInput{
			OrgID:         chi.URLParam(r, "orgID"),
			ActorID:       actor,
			ReservationID: chi.URLParam(r, "reservationID"),
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		resp := confirmReservationResponse{
			Reservation: toReservationResponse(res.Reservation),
			Order:       toOrderResponse(res.Order),
		}

		w.Header().Set("Content-Type", "application/json")
		if res.Created {
			w.WriteHeader(http.StatusCreated)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// HandleCancelReservation returns an HTTP handler for cancelling holds.
func HandleCancelReservation(svc ReservationCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor := r.Header.Get(actorHeader)
		if actor == "" {
			writeError(w, http.StatusBadRequest, codeActorRequired, "actor id required")
			return
		}

		// The body is optional; chunked requests report no length, so decode
		// and treat a bare EOF as an absent body.
		var req cancelReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		res, err := svc.CancelReservation(r.Context(), app.CancelReservationInput{
			OrgID:         chi.URLParam(r, "orgID"),
			ActorID:       actor,
			ReservationID: chi.URLParam(r, "reservationID"),
			Reason:        req.Reason,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(toReservationResponse(res))
	}
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

type confirmReservationResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Order       orderResponse       `json:"order"`
}

type orderResponse struct {
	ID            string              `json:"id"`
	ReservationID string              `json:"reservation_id"`
	OrderNumber   string              `json:"order_number"`
	AdvertiserID  string              `json:"advertiser_id"`
	AgencyID      string              `json:"agency_id,omitempty"`
	CampaignID    string              `json:"campaign_id,omitempty"`
	NetAmount     int64               `json:"net_amount"`
	CreatedAt     time.Time           `json:"created_at"`
	Items         []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID            string `json:"id"`
	ShowID        string `json:"show_id"`
	EpisodeID     string `json:"episode_id,omitempty"`
	AirDate       string `json:"air_date"`
	PlacementType string `json:"placement_type"`
	LengthSeconds int    `json:"length_seconds"`
	Rate          int64  `json:"rate"`
}

func toOrderResponse(order domain.Order) orderResponse {
	resp := orderResponse{
		ID:            order.ID,
		ReservationID: order.ReservationID,
		OrderNumber:   order.OrderNumber,
		AdvertiserID:  order.AdvertiserID,
		AgencyID:      order.AgencyID,
		CampaignID:    order.CampaignID,
		NetAmount:     order.NetAmount,
		CreatedAt:     order.CreatedAt,
		Items:         make([]orderItemResponse, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:            item.ID,
			ShowID:        item.ShowID,
			EpisodeID:     item.EpisodeID,
			AirDate:       item.AirDate.Format(dateLayout),
			PlacementType: string(item.PlacementType),
			LengthSeconds: item.LengthSeconds,
			Rate:          item.Rate,
		})
	}
	return resp
}
