package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/clock"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

const (
	defaultHoldHours = 48
	defaultMaxHours  = 14 * 24

	defaultPageLimit = 20
	maxPageLimit     = 100
)

// ReservationService drives the hold side of the lifecycle: create, cancel,
// update and list. Confirmation lives in OrderService.
type ReservationService struct {
	store  ReservationStore
	ledger InventoryLedger
	clock  clock.Clock

	defaultHold int
	maxHold     int
}

type ReservationServiceOption func(*ReservationService)

// WithDefaultHoldHours overrides the hold duration applied when a caller
// does not supply one.
func WithDefaultHoldHours(h int) ReservationServiceOption {
	return func(s *ReservationService) {
		if h > 0 {
			s.defaultHold = h
		}
	}
}

// WithMaxHoldHours caps how far out a hold deadline may be set.
func WithMaxHoldHours(h int) ReservationServiceOption {
	return func(s *ReservationService) {
		if h > 0 {
			s.maxHold = h
		}
	}
}

func NewReservationService(store ReservationStore, ledger InventoryLedger, clk clock.Clock, opts ...ReservationServiceOption) *ReservationService {
	svc := &ReservationService{
		store:       store,
		ledger:      ledger,
		clock:       clk,
		defaultHold: defaultHoldHours,
		maxHold:     defaultMaxHours,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationItemInput struct {
	ShowID        string
	EpisodeID     string
	AirDate       time.Time
	PlacementType domain.PlacementType
	LengthSeconds int
	Rate          int64
}

type CreateReservationInput struct {
	OrgID             string
	ActorID           string
	AdvertiserID      string
	AgencyID          string
	CampaignID        string
	HoldDurationHours int
	Priority          int
	Notes             string
	Items             []ReservationItemInput
}

// CreateReservation holds one spot per requested item, all or nothing. Every
// slot decrement, the reservation rows and the history append commit in one
// transaction; when any item cannot be held the whole call rolls back and the
// error names the failing item.
func (s *ReservationService) CreateReservation(ctx context.Context, in CreateReservationInput) (domain.Reservation, error) {
	if err := s.validateCreate(&in); err != nil {
		return domain.Reservation{}, err
	}

	now := s.clock.Now()
	reservationID := newID()

	var total int64
	items := make([]domain.ReservationItem, len(in.Items))
	for i, it := range in.Items {
		total += it.Rate
		items[i] = domain.ReservationItem{
			ID:            newID(),
			ReservationID: reservationID,
			ShowID:        it.ShowID,
			EpisodeID:     it.EpisodeID,
			AirDate:       it.AirDate,
			PlacementType: it.PlacementType,
			LengthSeconds: it.LengthSeconds,
			Rate:          it.Rate,
			Status:        domain.ItemStatusHeld,
		}
	}

	res := domain.Reservation{
		ID:                reservationID,
		OrgID:             in.OrgID,
		AdvertiserID:      in.AdvertiserID,
		AgencyID:          in.AgencyID,
		CampaignID:        in.CampaignID,
		Status:            domain.ReservationStatusHeld,
		HoldDurationHours: in.HoldDurationHours,
		ExpiresAt:         now.Add(time.Duration(in.HoldDurationHours) * time.Hour),
		TotalAmount:       total,
		Priority:          in.Priority,
		Notes:             in.Notes,
		CreatedBy:         in.ActorID,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	}

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		for i := range items {
			slot, err := s.ledger.GetSlot(txCtx, in.OrgID, items[i].ShowID, items[i].AirDate, items[i].PlacementType)
			if err != nil {
				if errors.Is(err, domain.ErrSlotNotFound) {
					return fmt.Errorf("item %d: %w", i, domain.ErrSlotNotFound)
				}
				return err
			}
			items[i].SlotID = slot.ID
		}

		// Acquire slot rows in a fixed order so concurrent multi-item
		// reservations cannot deadlock on each other.
		order := make([]int, len(items))
		for i := range order {
			order[i] = i
		}
		sort.Slice(order, func(a, b int) bool {
			return items[order[a]].SlotID < items[order[b]].SlotID
		})

		for _, i := range order {
			if err := s.ledger.ReserveSpots(txCtx, items[i].SlotID, 1); err != nil {
				if errors.Is(err, domain.ErrInsufficientInventory) {
					return &domain.InsufficientInventoryError{
						ItemIndex:     i,
						ShowID:        items[i].ShowID,
						AirDate:       items[i].AirDate,
						PlacementType: items[i].PlacementType,
					}
				}
				return err
			}
		}

		if err := s.store.CreateReservation(txCtx, res); err != nil {
			return err
		}
		return s.store.AppendStatusChange(txCtx, domain.StatusChange{
			ID:            newID(),
			ReservationID: reservationID,
			FromStatus:    nil,
			ToStatus:      domain.ReservationStatusHeld,
			ActorID:       in.ActorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (s *ReservationService) validateCreate(in *CreateReservationInput) error {
	if in.OrgID == "" {
		return domain.ErrOrgRequired
	}
	if in.ActorID == "" {
		return domain.ErrActorRequired
	}
	if in.AdvertiserID == "" {
		return domain.ErrAdvertiserRequired
	}
	if len(in.Items) == 0 {
		return domain.ErrNoItems
	}
	if in.HoldDurationHours == 0 {
		in.HoldDurationHours = s.defaultHold
	}
	if in.HoldDurationHours < 0 || in.HoldDurationHours > s.maxHold {
		return domain.ErrInvalidHoldDuration
	}
	for _, it := range in.Items {
		if it.ShowID == "" || it.AirDate.IsZero() {
			return domain.ErrSlotNotFound
		}
		if !domain.ValidPlacementType(it.PlacementType) {
			return domain.ErrInvalidPlacementType
		}
		if it.LengthSeconds <= 0 {
			return domain.ErrInvalidLength
		}
		if it.Rate < 0 {
			return domain.ErrInvalidRate
		}
	}
	return nil
}

type CancelReservationInput struct {
	OrgID         string
	ActorID       string
	ReservationID string
	Reason        string
}

// CancelReservation releases every held spot and moves the reservation to its
// terminal cancelled status. The status-guarded transition claims the row, so
// a cancel racing the sweeper or another cancel releases inventory once.
func (s *ReservationService) CancelReservation(ctx context.Context, in CancelReservationInput) (domain.Reservation, error) {
	if in.OrgID == "" || in.ReservationID == "" {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if in.ActorID == "" {
		return domain.Reservation{}, domain.ErrActorRequired
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.store.GetReservationForUpdate(txCtx, in.OrgID, in.ReservationID)
		if err != nil {
			return err
		}

		claimed, err := s.store.TransitionStatus(txCtx, res.ID, domain.ReservationStatusHeld, domain.ReservationStatusCancelled)
		if err != nil {
			return err
		}
		if !claimed {
			return domain.ErrInvalidStateTransition
		}

		for _, item := range res.Items {
			if err := s.ledger.ReleaseSpots(txCtx, item.SlotID, 1); err != nil {
				return err
			}
		}
		if err := s.store.SetItemStatuses(txCtx, res.ID, domain.ItemStatusReleased); err != nil {
			return err
		}

		from := domain.ReservationStatusHeld
		if err := s.store.AppendStatusChange(txCtx, domain.StatusChange{
			ID:            newID(),
			ReservationID: res.ID,
			FromStatus:    &from,
			ToStatus:      domain.ReservationStatusCancelled,
			Reason:        in.Reason,
			ActorID:       in.ActorID,
			CreatedAt:     now,
		}); err != nil {
			return err
		}

		res.Status = domain.ReservationStatusCancelled
		res.UpdatedAt = now
		for i := range res.Items {
			res.Items[i].Status = domain.ItemStatusReleased
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

type UpdateReservationInput struct {
	OrgID         string
	ActorID       string
	ReservationID string
	Patch         domain.ReservationPatch
}

// UpdateReservation changes the mutable fields of a held reservation. A new
// hold duration recomputes the deadline from the original creation time; it
// never extends past the configured maximum.
func (s *ReservationService) UpdateReservation(ctx context.Context, in UpdateReservationInput) (domain.Reservation, error) {
	if in.OrgID == "" || in.ReservationID == "" {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	if in.ActorID == "" {
		return domain.Reservation{}, domain.ErrActorRequired
	}
	if h := in.Patch.HoldDurationHours; h != nil && (*h <= 0 || *h > s.maxHold) {
		return domain.Reservation{}, domain.ErrInvalidHoldDuration
	}

	var result domain.Reservation

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.store.GetReservationForUpdate(txCtx, in.OrgID, in.ReservationID)
		if err != nil {
			return err
		}
		if res.Status != domain.ReservationStatusHeld {
			return domain.ErrInvalidStateTransition
		}

		if in.Patch.CampaignID != nil {
			res.CampaignID = *in.Patch.CampaignID
		}
		if in.Patch.Priority != nil {
			res.Priority = *in.Patch.Priority
		}
		if in.Patch.Notes != nil {
			res.Notes = *in.Patch.Notes
		}
		if in.Patch.HoldDurationHours != nil {
			res.HoldDurationHours = *in.Patch.HoldDurationHours
			res.ExpiresAt = res.CreatedAt.Add(time.Duration(res.HoldDurationHours) * time.Hour)
		}

		saved, err := s.store.SaveHeldChanges(txCtx, res)
		if err != nil {
			return err
		}
		if !saved {
			return domain.ErrInvalidStateTransition
		}

		res.UpdatedAt = s.clock.Now()
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// ListReservations returns a filtered page of reservations with their items.
func (s *ReservationService) ListReservations(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, domain.Pagination, error) {
	if orgID == "" {
		return nil, domain.Pagination{}, domain.ErrOrgRequired
	}
	if f.Status != "" {
		switch f.Status {
		case domain.ReservationStatusHeld, domain.ReservationStatusConfirmed,
			domain.ReservationStatusCancelled, domain.ReservationStatusExpired:
		default:
			return nil, domain.Pagination{}, domain.ErrInvalidStatusFilter
		}
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}

	items, total, err := s.store.List(ctx, orgID, f)
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	pages := total / f.Limit
	if total%f.Limit != 0 {
		pages++
	}
	return items, domain.Pagination{
		Page:       f.Page,
		Limit:      f.Limit,
		Total:      total,
		TotalPages: pages,
	}, nil
}
