package app

import (
	"context"
	"sort"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/clock"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

// OrderStore persists orders created from confirmed reservations.
type OrderStore interface {
	NextOrderNumber(ctx context.Context) (string, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	GetOrderByReservationID(ctx context.Context, reservationID string) (*domain.Order, error)
}

// OrderService confirms held reservations and converts them into billable
// orders in the same transaction.
type OrderService struct {
	store  ReservationStore
	ledger InventoryLedger
	orders OrderStore
	clock  clock.Clock
}

func NewOrderService(store ReservationStore, ledger InventoryLedger, orders OrderStore, clk clock.Clock) *OrderService {
	return &OrderService{
		store:  store,
		ledger: ledger,
		orders: orders,
		clock:  clk,
	}
}

type ConfirmReservationInput struct {
	OrgID         string
	ActorID       string
	ReservationID string
}

type ConfirmReservationResult struct {
	Reservation domain.Reservation
	Order       domain.Order
	// Created is false when a retried confirm found the order already in
	// place and returned it as a no-op.
	Created bool
}

// ConfirmReservation books every held spot, materializes the order, flips the
// reservation to confirmed and appends history, all inside one transaction;
// a failure at any step rolls back the book() moves already applied.
//
// Confirming an already-confirmed reservation returns the existing order with
// Created=false, so client retries after a timed-out response are safe.
func (s *OrderService) ConfirmReservation(ctx context.Context, in ConfirmReservationInput) (ConfirmReservationResult, error) {
	if in.OrgID == "" || in.ReservationID == "" {
		return ConfirmReservationResult{}, domain.ErrReservationNotFound
	}
	if in.ActorID == "" {
		return ConfirmReservationResult{}, domain.ErrActorRequired
	}

	now := s.clock.Now()
	var result ConfirmReservationResult

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.store.GetReservationForUpdate(txCtx, in.OrgID, in.ReservationID)
		if err != nil {
			return err
		}

		switch res.Status {
		case domain.ReservationStatusConfirmed:
			existing, err := s.orders.GetOrderByReservationID(txCtx, res.ID)
			if err != nil {
				return err
			}
			if existing == nil {
				return domain.ErrInvalidStateTransition
			}
			result = ConfirmReservationResult{Reservation: res, Order: *existing, Created: false}
			return nil
		case domain.ReservationStatusCancelled:
			return domain.ErrInvalidStateTransition
		case domain.ReservationStatusExpired:
			return domain.ErrReservationExpired
		}

		// Past-deadline holds are left for the sweeper to reclaim; confirm
		// just refuses them.
		if !res.ExpiresAt.After(now) {
			return domain.ErrReservationExpired
		}

		items := append([]domain.ReservationItem(nil), res.Items...)
		sort.Slice(items, func(a, b int) bool { return items[a].SlotID < items[b].SlotID })
		for _, item := range items {
			if err := s.ledger.BookSpots(txCtx, item.SlotID, 1); err != nil {
				return err
			}
		}

		order, err := s.convert(txCtx, res, in.ActorID, now)
		if err != nil {
			return err
		}

		claimed, err := s.store.TransitionStatus(txCtx, res.ID, domain.ReservationStatusHeld, domain.ReservationStatusConfirmed)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrInvalidStateTransition
		}
		if err := s.store.SetItemStatuses(txCtx, res.ID, domain.ItemStatusBooked); err != nil {
			return err
		}

		from := domain.ReservationStatusHeld
		if err := s.store.AppendStatusChange(txCtx, domain.StatusChange{
			ID:            newID(),
			ReservationID: res.ID,
			FromStatus:    &from,
			ToStatus:      domain.ReservationStatusConfirmed,
			ActorID:       in.ActorID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		res.Status = domain.ReservationStatusConfirmed
		res.UpdatedAt = now
		for i := range res.Items {
			res.Items[i].Status = domain.ItemStatusBooked
		}
		result = ConfirmReservationResult{Reservation: res, Order: order, Created: true}
		return nil
	})
	if err != nil {
		return ConfirmReservationResult{}, err
	}
	return result, nil
}

// convert copies the reservation's commercial data into a new order. Rates,
// lengths and placements are copied verbatim so a later rate-card change
// cannot alter an already-held deal.
func (s *OrderService) convert(ctx context.Context, res domain.Reservation, actorID string, now time.Time) (domain.Order, error) {
	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:            newID(),
		OrgID:         res.OrgID,
		ReservationID: res.ID,
		OrderNumber:   number,
		AdvertiserID:  res.AdvertiserID,
		AgencyID:      res.AgencyID,
		CampaignID:    res.CampaignID,
		NetAmount:     res.TotalAmount,
		CreatedBy:     actorID,
		CreatedAt:     now,
	}
	for _, item := range res.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ID:            newID(),
			OrderID:       order.ID,
			ShowID:        item.ShowID,
			EpisodeID:     item.EpisodeID,
			AirDate:       item.AirDate,
			PlacementType: item.PlacementType,
			LengthSeconds: item.LengthSeconds,
			Rate:          item.Rate,
		})
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
