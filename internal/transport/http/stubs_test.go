package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/app"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

type stubReservations struct {
	createFn func(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error)
	listFn   func(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, domain.Pagination, error)
	updateFn func(ctx context.Context, in app.UpdateReservationInput) (domain.Reservation, error)
	cancelFn func(ctx context.Context, in app.CancelReservationInput) (domain.Reservation, error)
}

func (s *stubReservations) CreateReservation(ctx context.Context, in app.CreateReservationInput) (domain.Reservation, error) {
	return s.createFn(ctx, in)
}

func (s *stubReservations) ListReservations(ctx context.Context, orgID string, f domain.ReservationFilter) ([]domain.Reservation, domain.Pagination, error) {
	return s.listFn(ctx, orgID, f)
}

func (s *stubReservations) UpdateReservation(ctx context.Context, in app.UpdateReservationInput) (domain.Reservation, error) {
	return s.updateFn(ctx, in)
}

func (s *stubReservations) CancelReservation(ctx context.Context, in app.CancelReservationInput) (domain.Reservation, error) {
	return s.cancelFn(ctx, in)
}

type stubConfirmer struct {
	confirmFn func(ctx context.Context, in app.ConfirmReservationInput) (app.ConfirmReservationResult, error)
}

func (s *stubConfirmer) ConfirmReservation(ctx context.Context, in app.ConfirmReservationInput) (app.ConfirmReservationResult, error) {
	return s.confirmFn(ctx, in)
}

type stubSweeper struct {
	expireFn func(ctx context.Context, orgID string) (int, error)
}

func (s *stubSweeper) ExpireDue(ctx context.Context, orgID string) (int, error) {
	return s.expireFn(ctx, orgID)
}

type stubInventory struct {
	createShowFn func(ctx context.Context, in app.CreateShowInput) (domain.Show, error)
	listShowsFn  func(ctx context.Context, orgID string) ([]domain.Show, error)
	provisionFn  func(ctx context.Context, in app.ProvisionSlotInput) (domain.InventorySlot, error)
	listSlotsFn  func(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error)
}

func (s *stubInventory) CreateShow(ctx context.Context, in app.CreateShowInput) (domain.Show, error) {
	return s.createShowFn(ctx, in)
}

func (s *stubInventory) ListShows(ctx context.Context, orgID string) ([]domain.Show, error) {
	return s.listShowsFn(ctx, orgID)
}

func (s *stubInventory) ProvisionSlot(ctx context.Context, in app.ProvisionSlotInput) (domain.InventorySlot, error) {
	return s.provisionFn(ctx, in)
}

func (s *stubInventory) ListSlots(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error) {
	return s.listSlotsFn(ctx, orgID, showID)
}

func newTestRouter(svcs Services) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(svcs, nil, log)
}
