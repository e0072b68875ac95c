package app

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

// InventoryLedger owns per-slot spot counts. Each movement is atomic and
// conditional: it either applies fully or reports why it could not, so no
// caller ever works from a stale read.
type InventoryLedger interface {
	GetSlot(ctx context.Context, orgID, showID string, airDate time.Time, placement domain.PlacementType) (domain.InventorySlot, error)
	ReserveSpots(ctx context.Context, slotID string, count int) error
	ReleaseSpots(ctx context.Context, slotID string, count int) error
	BookSpots(ctx context.Context, slotID string, count int) error
	UnbookSpots(ctx context.Context, slotID string, count int) error
}

// ReservationStore persists reservations, items and the status-history audit
// trail. WithTx scopes every call made inside fn to one transaction shared
// with the ledger.
type ReservationStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, orgID, id string) (domain.Reservation, error)
	GetReservationForUpdate(ctx context.Context, orgID, id string) (domain.Reservation, error)
	TransitionStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error)
	ClaimForExpiry(ctx context.Context, id string, now time.Time) (bool, error)
	SaveHeldChanges(ctx context.Context, res domain.Reservation) (bool, error)
	ListItems(ctx context.Context, reservationID string) ([]domain.ReservationItem, error)
	SetItemStatuses(ctx context.Context, reservationID string, status domain.ItemStatus) error
	AppendStatusChange(ctx context.Context, ch domain.StatusChange) error
	ListDueForExpiry(ctx context.Context, orgID string, now time.Time, limit int) ([]string, error)
	List(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, int, error)
}
