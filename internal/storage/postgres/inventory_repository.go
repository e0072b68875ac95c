package postgres

import (
	"context"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// InventoryRepository backs the provisioning surface: shows and slot
// capacity planning. The reservation engine only reads what is created here.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

func (r *InventoryRepository) CreateShow(ctx context.Context, show domain.Show) error {
	const stmt = `
INSERT INTO shows (id, org_id, name, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, stmt, show.ID, show.OrgID, show.Name, show.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create show: %w", err)
	}
	return nil
}

func (r *InventoryRepository) ListShows(ctx context.Context, orgID string) ([]domain.Show, error) {
	const query = `
SELECT id, org_id, name, created_at
FROM shows
WHERE org_id = $1
ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list shows: %w", err)
	}
	defer rows.Close()

	var shows []domain.Show
	for rows.Next() {
		var show domain.Show
		if err := rows.Scan(&show.ID, &show.OrgID, &show.Name, &show.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan show: %w", err)
		}
		shows = append(shows, show)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate shows: %w", rows.Err())
	}
	return shows, nil
}

func (r *InventoryRepository) CreateSlot(ctx context.Context, slot domain.InventorySlot) error {
	const stmt = `
INSERT INTO inventory_slots (id, org_id, show_id, air_date, placement_type,
	total_spots, available_spots, reserved_spots, booked_spots)
VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)`

	_, err := r.pool.Exec(ctx, stmt,
		slot.ID, slot.OrgID, slot.ShowID, slot.AirDate, slot.PlacementType,
		slot.TotalSpots, slot.AvailableSpots,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrSlotAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrShowNotFound
		}
		return fmt.Errorf("create slot: %w", err)
	}
	return nil
}

func (r *InventoryRepository) ListSlotsByShow(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error) {
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM shows WHERE org_id = $1 AND id = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, existsQuery, orgID, showID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("check show: %w", err)
	}
	if !exists {
		return nil, domain.ErrShowNotFound
	}

	const query = `
SELECT id, org_id, show_id, air_date, placement_type, total_spots, available_spots, reserved_spots, booked_spots
FROM inventory_slots
WHERE org_id = $1 AND show_id = $2
ORDER BY air_date, placement_type`

	rows, err := r.pool.Query(ctx, query, orgID, showID)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.InventorySlot
	for rows.Next() {
		var s domain.InventorySlot
		if err := rows.Scan(
			&s.ID, &s.OrgID, &s.ShowID, &s.AirDate, &s.PlacementType,
			&s.TotalSpots, &s.AvailableSpots, &s.ReservedSpots, &s.BookedSpots,
		); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slots: %w", rows.Err())
	}
	return slots, nil
}
