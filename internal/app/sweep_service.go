package app

import (
	"context"
	"log/slog"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/clock"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

const defaultSweepBatch = 200

// SweepService reclaims inventory from holds whose deadline has passed. It is
// idempotent and safe to run from multiple instances at once: each
// reservation is claimed with a status-guarded transition, so only the
// claimer releases its spots.
type SweepService struct {
	store  ReservationStore
	ledger InventoryLedger
	clock  clock.Clock
	log    *slog.Logger
	batch  int
}

type SweepServiceOption func(*SweepService)

// WithSweepBatch caps how many due reservations one pass processes.
func WithSweepBatch(n int) SweepServiceOption {
	return func(s *SweepService) {
		if n > 0 {
			s.batch = n
		}
	}
}

func NewSweepService(store ReservationStore, ledger InventoryLedger, clk clock.Clock, log *slog.Logger, opts ...SweepServiceOption) *SweepService {
	svc := &SweepService{
		store:  store,
		ledger: ledger,
		clock:  clk,
		log:    log,
		batch:  defaultSweepBatch,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// ExpireDue expires every held reservation past its deadline. orgID narrows
// the sweep to one organization; empty sweeps all. A failure on one
// reservation is logged and does not abort the rest of the pass.
func (s *SweepService) ExpireDue(ctx context.Context, orgID string) (int, error) {
	now := s.clock.Now()

	ids, err := s.store.ListDueForExpiry(ctx, orgID, now, s.batch)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		claimed, err := s.expireOne(ctx, id)
		if err != nil {
			s.log.Error("expire reservation failed",
				slog.String("reservation_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if claimed {
			expired++
		}
	}
	return expired, nil
}

func (s *SweepService) expireOne(ctx context.Context, id string) (bool, error) {
	now := s.clock.Now()
	claimed := false

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		// The claim rechecks the deadline so an update that extended the hold
		// after it was listed as due keeps it alive.
		ok, err := s.store.ClaimForExpiry(txCtx, id, now)
		if err != nil {
			return err
		}
		if !ok {
			// Another sweeper, a confirm, a cancel or an extension got there first.
			return nil
		}
		claimed = true

		items, err := s.store.ListItems(txCtx, id)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := s.ledger.ReleaseSpots(txCtx, item.SlotID, 1); err != nil {
				return err
			}
		}
		if err := s.store.SetItemStatuses(txCtx, id, domain.ItemStatusReleased); err != nil {
			return err
		}

		from := domain.ReservationStatusHeld
		return s.store.AppendStatusChange(txCtx, domain.StatusChange{
			ID:            newID(),
			ReservationID: id,
			FromStatus:    &from,
			ToStatus:      domain.ReservationStatusExpired,
			Reason:        "hold expired",
			ActorID:       SystemActorID,
			CreatedAt:     now,
		})
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}
