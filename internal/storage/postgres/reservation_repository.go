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

// ReservationRepository persists reservations, their items and the
// append-only status history.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, org_id, advertiser_id, agency_id, campaign_id, status,
	hold_duration_hours, expires_at, total_amount, priority, notes, created_by, created_at, updated_at)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10, $11, $12, $13, $13)`

	_, err := r.exec(ctx, stmt,
		res.ID, res.OrgID, res.AdvertiserID, res.AgencyID, res.CampaignID, res.Status,
		res.HoldDurationHours, res.ExpiresAt, res.TotalAmount, res.Priority, res.Notes,
		res.CreatedBy, res.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}

	const itemStmt = `
INSERT INTO reservation_items (id, reservation_id, slot_id, show_id, episode_id, air_date,
	placement_type, length_seconds, rate, status)
VALUES ($1, $2, $3, $4, NULLIF($5, '')::uuid, $6, $7, $8, $9, $10)`

	for _, item := range res.Items {
		_, err := r.exec(ctx, itemStmt,
			item.ID, item.ReservationID, item.SlotID, item.ShowID, item.EpisodeID,
			item.AirDate, item.PlacementType, item.LengthSeconds, item.Rate, item.Status,
		)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create reservation item: %w", err)
		}
	}
	return nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, orgID, id string) (domain.Reservation, error) {
	return r.getReservation(ctx, orgID, id, false)
}

// GetReservationForUpdate locks the reservation row for the remainder of the
// transaction so concurrent confirms and cancels serialize on it.
func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, orgID, id string) (domain.Reservation, error) {
	return r.getReservation(ctx, orgID, id, true)
}

func (r *ReservationRepository) getReservation(ctx context.Context, orgID, id string, forUpdate bool) (domain.Reservation, error) {
	query := `
SELECT id, org_id, advertiser_id, COALESCE(agency_id::text, ''), COALESCE(campaign_id::text, ''), status,
	hold_duration_hours, expires_at, total_amount, priority, notes, created_by, created_at, updated_at
FROM reservations
WHERE org_id = $1 AND id = $2`
	if forUpdate {
		query += `
FOR UPDATE`
	}

	var res domain.Reservation
	err := r.queryRow(ctx, query, orgID, id).Scan(
		&res.ID, &res.OrgID, &res.AdvertiserID, &res.AgencyID, &res.CampaignID, &res.Status,
		&res.HoldDurationHours, &res.ExpiresAt, &res.TotalAmount, &res.Priority, &res.Notes,
		&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}

	items, err := r.listItems(ctx, res.ID)
	if err != nil {
		return domain.Reservation{}, err
	}
	res.Items = items
	return res, nil
}

// ListItems returns a reservation's items in stable order.
func (r *ReservationRepository) ListItems(ctx context.Context, reservationID string) ([]domain.ReservationItem, error) {
	return r.listItems(ctx, reservationID)
}

func (r *ReservationRepository) listItems(ctx context.Context, reservationID string) ([]domain.ReservationItem, error) {
	const query = `
SELECT id, reservation_id, slot_id, show_id, COALESCE(episode_id::text, ''), air_date,
	placement_type, length_seconds, rate, status
FROM reservation_items
WHERE reservation_id = $1
ORDER BY air_date, placement_type, id`

	rows, err := r.query(ctx, query, reservationID)
	if err != nil {
		return nil, fmt.Errorf("list reservation items: %w", err)
	}
	defer rows.Close()

	var items []domain.ReservationItem
	for rows.Next() {
		var item domain.ReservationItem
		if err := rows.Scan(
			&item.ID, &item.ReservationID, &item.SlotID, &item.ShowID, &item.EpisodeID,
			&item.AirDate, &item.PlacementType, &item.LengthSeconds, &item.Rate, &item.Status,
		); err != nil {
			return nil, fmt.Errorf("scan reservation item: %w", err)
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservation items: %w", rows.Err())
	}
	return items, nil
}

// TransitionStatus flips status from one value to another in a single guarded
// UPDATE. The false return means some other caller claimed the row first, or
// it was never in the from status; nothing was changed either way.
func (r *ReservationRepository) TransitionStatus(ctx context.Context, id string, from, to domain.ReservationStatus) (bool, error) {
	const stmt = `
UPDATE reservations
SET status = $3, updated_at = NOW()
WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, id, from, to)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("transition reservation status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ClaimForExpiry marks a held reservation expired only while its deadline is
// still in the past. An update that pushed expires_at forward after the
// reservation was listed as due makes the claim lose.
func (r *ReservationRepository) ClaimForExpiry(ctx context.Context, id string, now time.Time) (bool, error) {
	const stmt = `
UPDATE reservations
SET status = 'expired', updated_at = NOW()
WHERE id = $1 AND status = 'held' AND expires_at < $2`

	tag, err := r.exec(ctx, stmt, id, now)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("claim reservation for expiry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// SaveHeldChanges writes the mutable fields of a held reservation. The status
// guard makes updates racing a confirm/cancel/expiry lose cleanly.
func (r *ReservationRepository) SaveHeldChanges(ctx context.Context, res domain.Reservation) (bool, error) {
	const stmt = `
UPDATE reservations
SET campaign_id = NULLIF($2, '')::uuid, priority = $3, notes = $4,
	hold_duration_hours = $5, expires_at = $6, updated_at = NOW()
WHERE id = $1 AND status = 'held'`

	tag, err := r.exec(ctx, stmt, res.ID, res.CampaignID, res.Priority, res.Notes, res.HoldDurationHours, res.ExpiresAt)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("save held reservation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ReservationRepository) SetItemStatuses(ctx context.Context, reservationID string, status domain.ItemStatus) error {
	const stmt = `UPDATE reservation_items SET status = $2 WHERE reservation_id = $1`

	if _, err := r.exec(ctx, stmt, reservationID, status); err != nil {
		return fmt.Errorf("set item statuses: %w", err)
	}
	return nil
}

func (r *ReservationRepository) AppendStatusChange(ctx context.Context, ch domain.StatusChange) error {
	const stmt = `
INSERT INTO reservation_status_history (id, reservation_id, from_status, to_status, reason, actor_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt, ch.ID, ch.ReservationID, ch.FromStatus, ch.ToStatus, ch.Reason, ch.ActorID, ch.CreatedAt)
	if err != nil {
		return fmt.Errorf("append status change: %w", err)
	}
	return nil
}

// ListDueForExpiry returns ids of held reservations whose deadline has
// passed. orgID may be empty to sweep every organization.
func (r *ReservationRepository) ListDueForExpiry(ctx context.Context, orgID string, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id
FROM reservations
WHERE status = 'held' AND expires_at < $1 AND ($2 = '' OR org_id = $2::uuid)
ORDER BY expires_at
LIMIT $3`

	rows, err := r.query(ctx, query, now, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("list due reservations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan due reservation: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate due reservations: %w", rows.Err())
	}
	return ids, nil
}

func (r *ReservationRepository) List(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, int, error) {
	const where = `
WHERE org_id = $1
	AND ($2 = '' OR status = $2)
	AND ($3 = '' OR advertiser_id = $3::uuid)
	AND ($4 = '' OR campaign_id = $4::uuid)`

	var total int
	countQuery := `SELECT COUNT(*) FROM reservations` + where
	if err := r.queryRow(ctx, countQuery, orgID, string(f.Status), f.AdvertiserID, f.CampaignID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return nil, 0, domain.ErrInvalidID
		}
		return nil, 0, fmt.Errorf("count reservations: %w", err)
	}

	query := `
SELECT id, org_id, advertiser_id, COALESCE(agency_id::text, ''), COALESCE(campaign_id::text, ''), status,
	hold_duration_hours, expires_at, total_amount, priority, notes, created_by, created_at, updated_at
FROM reservations` + where + `
ORDER BY created_at DESC
LIMIT $5 OFFSET $6`

	offset := (f.Page - 1) * f.Limit
	rows, err := r.query(ctx, query, orgID, string(f.Status), f.AdvertiserID, f.CampaignID, f.Limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		if err := rows.Scan(
			&res.ID, &res.OrgID, &res.AdvertiserID, &res.AgencyID, &res.CampaignID, &res.Status,
			&res.HoldDurationHours, &res.ExpiresAt, &res.TotalAmount, &res.Priority, &res.Notes,
			&res.CreatedBy, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if rows.Err() != nil {
		return nil, 0, fmt.Errorf("iterate reservations: %w", rows.Err())
	}

	for i := range reservations {
		items, err := r.listItems(ctx, reservations[i].ID)
		if err != nil {
			return nil, 0, err
		}
		reservations[i].Items = items
	}
	return reservations, total, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
