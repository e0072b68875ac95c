package app_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/app"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/clock"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/storage/postgres"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/testutil"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	ctx     context.Context
	pool    *pgxpool.Pool
	store   *postgres.ReservationRepository
	ledger  *postgres.SlotRepository
	orders  *postgres.OrderRepository
	orgID   string
	showID  string
	slotID  string
	airDate time.Time
}

func setupEngine(t *testing.T) engineFixture {
	t.Helper()
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	airDate := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	orgID := testutil.InsertOrg(t, ctx, pool, "Acme Podcasts")
	showID := testutil.InsertShow(t, ctx, pool, orgID, "Morning Brief")
	slotID := testutil.InsertSlot(t, ctx, pool, orgID, showID, airDate, domain.PlacementMidroll, 2)

	return engineFixture{
		ctx:     ctx,
		pool:    pool,
		store:   postgres.NewReservationRepository(pool),
		ledger:  postgres.NewSlotRepository(pool),
		orders:  postgres.NewOrderRepository(pool),
		orgID:   orgID,
		showID:  showID,
		slotID:  slotID,
		airDate: airDate,
	}
}

func (f engineFixture) createInput(actorID string) app.CreateReservationInput {
	return app.CreateReservationInput{
		OrgID:        f.orgID,
		ActorID:      actorID,
		AdvertiserID: uuid.NewString(),
		Items: []app.ReservationItemInput{{
			ShowID:        f.showID,
			AirDate:       f.airDate,
			PlacementType: domain.PlacementMidroll,
			LengthSeconds: 30,
			Rate:          50000,
		}},
	}
}

func TestEngine_HoldConfirmLifecycle(t *testing.T) {
	f := setupEngine(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	actor := uuid.NewString()

	reservations := app.NewReservationService(f.store, f.ledger, clk)
	orders := app.NewOrderService(f.store, f.ledger, f.orders, clk)

	res, err := reservations.CreateReservation(f.ctx, f.createInput(actor))
	require.NoError(t, err)
	_, available, reserved, booked := testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 1, available)
	assert.Equal(t, 1, reserved)
	assert.Equal(t, 0, booked)

	result, err := orders.ConfirmReservation(f.ctx, app.ConfirmReservationInput{
		OrgID:         f.orgID,
		ActorID:       actor,
		ReservationID: res.ID,
	})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.NotEmpty(t, result.Order.OrderNumber)
	_, available, reserved, booked = testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 1, available)
	assert.Equal(t, 0, reserved)
	assert.Equal(t, 1, booked)

	retry, err := orders.ConfirmReservation(f.ctx, app.ConfirmReservationInput{
		OrgID:         f.orgID,
		ActorID:       actor,
		ReservationID: res.ID,
	})
	require.NoError(t, err)
	assert.False(t, retry.Created)
	assert.Equal(t, result.Order.ID, retry.Order.ID)
	_, _, reserved, booked = testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 0, reserved)
	assert.Equal(t, 1, booked)
}

func TestEngine_HoldCancelRestoresInventory(t *testing.T) {
	f := setupEngine(t)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clk := clock.NewFixed(now)
	actor := uuid.NewString()

	reservations := app.NewReservationService(f.store, f.ledger, clk)

	res, err := reservations.CreateReservation(f.ctx, f.createInput(actor))
	require.NoError(t, err)

	cancelled, err := reservations.CancelReservation(f.ctx, app.CancelReservationInput{
		OrgID:         f.orgID,
		ActorID:       actor,
		ReservationID: res.ID,
		Reason:        "client pulled budget",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusCancelled, cancelled.Status)

	_, available, reserved, _ := testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 2, available)
	assert.Equal(t, 0, reserved)

	// Cancelling again loses the claim.
	_, err = reservations.CancelReservation(f.ctx, app.CancelReservationInput{
		OrgID:         f.orgID,
		ActorID:       actor,
		ReservationID: res.ID,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestEngine_OverbookingBlocked(t *testing.T) {
	f := setupEngine(t)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	actor := uuid.NewString()

	reservations := app.NewReservationService(f.store, f.ledger, clk)

	// The slot has two spots; the third hold must fail and change nothing.
	for i := 0; i < 2; i++ {
		_, err := reservations.CreateReservation(f.ctx, f.createInput(actor))
		require.NoError(t, err)
	}

	_, err := reservations.CreateReservation(f.ctx, f.createInput(actor))
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	var detail *domain.InsufficientInventoryError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 0, detail.ItemIndex)

	total, available, reserved, booked := testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 0, available)
	assert.Equal(t, 2, reserved)
	assert.Equal(t, total, available+reserved+booked)
}

func TestEngine_MultiItemFailureRollsBack(t *testing.T) {
	f := setupEngine(t)
	clk := clock.NewFixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	actor := uuid.NewString()

	// Three slots; the middle one is sold out, so the whole hold must fail
	// and leave the other two exactly as they were.
	soldOutID := testutil.InsertSlot(t, f.ctx, f.pool, f.orgID, f.showID, f.airDate, domain.PlacementPreroll, 0)
	openID := testutil.InsertSlot(t, f.ctx, f.pool, f.orgID, f.showID, f.airDate, domain.PlacementPostroll, 2)

	reservations := app.NewReservationService(f.store, f.ledger, clk)

	in := f.createInput(actor)
	in.Items = append(in.Items,
		app.ReservationItemInput{
			ShowID:        f.showID,
			AirDate:       f.airDate,
			PlacementType: domain.PlacementPreroll,
			LengthSeconds: 30,
			Rate:          40000,
		},
		app.ReservationItemInput{
			ShowID:        f.showID,
			AirDate:       f.airDate,
			PlacementType: domain.PlacementPostroll,
			LengthSeconds: 15,
			Rate:          20000,
		},
	)

	_, err := reservations.CreateReservation(f.ctx, in)
	require.ErrorIs(t, err, domain.ErrInsufficientInventory)

	var detail *domain.InsufficientInventoryError
	require.ErrorAs(t, err, &detail)
	assert.Equal(t, 1, detail.ItemIndex)

	// Every slot ends exactly where it started.
	for _, slotID := range []string{f.slotID, soldOutID, openID} {
		total, available, reserved, booked := testutil.SlotCounts(t, f.ctx, f.pool, slotID)
		assert.Equal(t, total, available)
		assert.Equal(t, 0, reserved)
		assert.Equal(t, 0, booked)
	}

	// No reservation row survives the rollback.
	listed, total, err := f.store.List(f.ctx, f.orgID, domain.ReservationFilter{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, listed)
}

func TestEngine_SweepExpiresOverdueHolds(t *testing.T) {
	f := setupEngine(t)
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	actor := uuid.NewString()

	reservations := app.NewReservationService(f.store, f.ledger, clock.NewFixed(start))

	in := f.createInput(actor)
	in.HoldDurationHours = 1
	res, err := reservations.CreateReservation(f.ctx, in)
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sweeper := app.NewSweepService(f.store, f.ledger, clock.NewFixed(start.Add(2*time.Hour)), log)

	n, err := sweeper.ExpireDue(f.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.store.GetReservation(f.ctx, f.orgID, res.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationStatusExpired, got.Status)
	for _, item := range got.Items {
		assert.Equal(t, domain.ItemStatusReleased, item.Status)
	}

	_, available, reserved, _ := testutil.SlotCounts(t, f.ctx, f.pool, f.slotID)
	assert.Equal(t, 2, available)
	assert.Equal(t, 0, reserved)

	// Expired holds cannot be confirmed.
	orders := app.NewOrderService(f.store, f.ledger, f.orders, clock.NewFixed(start.Add(3*time.Hour)))
	_, err = orders.ConfirmReservation(f.ctx, app.ConfirmReservationInput{
		OrgID:         f.orgID,
		ActorID:       actor,
		ReservationID: res.ID,
	})
	assert.ErrorIs(t, err, domain.ErrReservationExpired)

	// A second sweep finds nothing.
	n, err = sweeper.ExpireDue(f.ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
