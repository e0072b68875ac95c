package postgres

import (
	"context"
	"fmt"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// OrderRepository persists orders produced from confirmed reservations.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// NextOrderNumber allocates a human-readable order number from a database
// sequence, monotonic across all instances.
func (r *OrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.queryRow(ctx, `SELECT nextval('order_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next order number: %w", err)
	}
	return fmt.Sprintf("ORD-%06d", n), nil
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, org_id, reservation_id, order_number, advertiser_id, agency_id, campaign_id,
	net_amount, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, NULLIF($7, '')::uuid, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		order.ID, order.OrgID, order.ReservationID, order.OrderNumber,
		order.AdvertiserID, order.AgencyID, order.CampaignID,
		order.NetAmount, order.CreatedBy, order.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrInvalidStateTransition
		}
		return fmt.Errorf("create order: %w", err)
	}

	const itemStmt = `
INSERT INTO order_items (id, order_id, show_id, episode_id, air_date, placement_type, length_seconds, rate)
VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8)`

	for _, item := range order.Items {
		_, err := r.exec(ctx, itemStmt,
			item.ID, item.OrderID, item.ShowID, item.EpisodeID,
			item.AirDate, item.PlacementType, item.LengthSeconds, item.Rate,
		)
		if err != nil {
			return fmt.Errorf("create order item: %w", err)
		}
	}
	return nil
}

func (r *OrderRepository) GetOrderByReservationID(ctx context.Context, reservationID string) (*domain.Order, error) {
	const query = `
SELECT id, org_id, reservation_id, order_number, advertiser_id,
	COALESCE(agency_id::text, ''), COALESCE(campaign_id::text, ''), net_amount, created_by, created_at
FROM orders
WHERE reservation_id = $1`

	var o domain.Order
	err := r.queryRow(ctx, query, reservationID).Scan(
		&o.ID, &o.OrgID, &o.ReservationID, &o.OrderNumber, &o.AdvertiserID,
		&o.AgencyID, &o.CampaignID, &o.NetAmount, &o.CreatedBy, &o.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	const itemQuery = `
SELECT id, order_id, show_id, COALESCE(episode_id::text, ''), air_date, placement_type, length_seconds, rate
FROM order_items
WHERE order_id = $1
ORDER BY air_date, placement_type, id`

	rows, err := r.query(ctx, itemQuery, o.ID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(
			&item.ID, &item.OrderID, &item.ShowID, &item.EpisodeID,
			&item.AirDate, &item.PlacementType, &item.LengthSeconds, &item.Rate,
		); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate order items: %w", rows.Err())
	}
	return &o, nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
