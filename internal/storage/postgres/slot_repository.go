package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SlotRepository is the inventory ledger. Every spot movement is a single
// guarded UPDATE; a zero-rows-affected result is the failure signal, so
// concurrent callers serialize on the slot row without any application lock.
type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SlotRepository) GetSlot(ctx context.Context, orgID, showID string, airDate time.Time, placement domain.PlacementType) (domain.InventorySlot, error) {
	const query = `
SELECT id, org_id, show_id, air_date, placement_type, total_spots, available_spots, reserved_spots, booked_spots
FROM inventory_slots
WHERE org_id = $1 AND show_id = $2 AND air_date = $3 AND placement_type = $4`

	return r.scanSlot(r.queryRow(ctx, query, orgID, showID, airDate, placement))
}

func (r *SlotRepository) GetSlotByID(ctx context.Context, slotID string) (domain.InventorySlot, error) {
	const query = `
SELECT id, org_id, show_id, air_date, placement_type, total_spots, available_spots, reserved_spots, booked_spots
FROM inventory_slots
WHERE id = $1`

	return r.scanSlot(r.queryRow(ctx, query, slotID))
}

// ReserveSpots moves count spots from available to reserved, succeeding only
// when enough spots remain. Fails with ErrInsufficientInventory otherwise.
func (r *SlotRepository) ReserveSpots(ctx context.Context, slotID string, count int) error {
	const stmt = `
UPDATE inventory_slots
SET available_spots = available_spots - $2, reserved_spots = reserved_spots + $2
WHERE id = $1 AND available_spots >= $2`

	return r.moveSpots(ctx, stmt, slotID, count, domain.ErrInsufficientInventory)
}

// ReleaseSpots moves count spots from reserved back to available. A zero-rows
// result means reserved underflow, which correct callers never cause.
func (r *SlotRepository) ReleaseSpots(ctx context.Context, slotID string, count int) error {
	const stmt = `
UPDATE inventory_slots
SET reserved_spots = reserved_spots - $2, available_spots = available_spots + $2
WHERE id = $1 AND reserved_spots >= $2`

	return r.moveSpots(ctx, stmt, slotID, count, domain.ErrInvalidSlotState)
}

// BookSpots moves count spots from reserved to booked on confirmation.
func (r *SlotRepository) BookSpots(ctx context.Context, slotID string, count int) error {
	const stmt = `
UPDATE inventory_slots
SET reserved_spots = reserved_spots - $2, booked_spots = booked_spots + $2
WHERE id = $1 AND reserved_spots >= $2`

	return r.moveSpots(ctx, stmt, slotID, count, domain.ErrInvalidSlotState)
}

// UnbookSpots moves count spots from booked back to available, for order
// cancellation after booking.
func (r *SlotRepository) UnbookSpots(ctx context.Context, slotID string, count int) error {
	const stmt = `
UPDATE inventory_slots
SET booked_spots = booked_spots - $2, available_spots = available_spots + $2
WHERE id = $1 AND booked_spots >= $2`

	return r.moveSpots(ctx, stmt, slotID, count, domain.ErrInvalidSlotState)
}

func (r *SlotRepository) moveSpots(ctx context.Context, stmt, slotID string, count int, guardErr error) error {
	if count <= 0 {
		return domain.ErrInvalidSpotCount
	}

	tag, err := r.exec(ctx, stmt, slotID, count)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isCheckViolation(err) {
			return domain.ErrInventoryCorrupt
		}
		return fmt.Errorf("move spots: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inventory_slots WHERE id = $1)`, slotID).Scan(&exists); err != nil {
			return fmt.Errorf("check slot: %w", err)
		}
		if !exists {
			return domain.ErrSlotNotFound
		}
		return guardErr
	}
	return nil
}

func (r *SlotRepository) scanSlot(row pgx.Row) (domain.InventorySlot, error) {
	var s domain.InventorySlot
	err := row.Scan(
		&s.ID, &s.OrgID, &s.ShowID, &s.AirDate, &s.PlacementType,
		&s.TotalSpots, &s.AvailableSpots, &s.ReservedSpots, &s.BookedSpots,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.InventorySlot{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.InventorySlot{}, domain.ErrSlotNotFound
		}
		return domain.InventorySlot{}, fmt.Errorf("get slot: %w", err)
	}
	return s, nil
}

func (r *SlotRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SlotRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
