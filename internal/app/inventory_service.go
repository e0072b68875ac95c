package app

import (
	"context"
	"time"

	"github.com/ebfarnell/podcastflow-pro-sub019/internal/clock"
	"github.com/ebfarnell/podcastflow-pro-sub019/internal/domain"
)

// ProvisioningStore persists shows and slot capacity plans.
type ProvisioningStore interface {
	CreateShow(ctx context.Context, show domain.Show) error
	ListShows(ctx context.Context, orgID string) ([]domain.Show, error)
	CreateSlot(ctx context.Context, slot domain.InventorySlot) error
	ListSlotsByShow(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error)
}

// InventoryService is the planning surface that provisions slots. The
// reservation engine itself never creates or destroys inventory.
type InventoryService struct {
	store ProvisioningStore
	clock clock.Clock
}

func NewInventoryService(store ProvisioningStore, clk clock.Clock) *InventoryService {
	return &InventoryService{
		store: store,
		clock: clk,
	}
}

type CreateShowInput struct {
	OrgID string
	Name  string
}

func (s *InventoryService) CreateShow(ctx context.Context, in CreateShowInput) (domain.Show, error) {
	if in.OrgID == "" {
		return domain.Show{}, domain.ErrOrgRequired
	}
	if in.Name == "" {
		return domain.Show{}, domain.ErrShowNameRequired
	}

	show := domain.Show{
		ID:        newID(),
		OrgID:     in.OrgID,
		Name:      in.Name,
		CreatedAt: s.clock.Now(),
	}
	if err := s.store.CreateShow(ctx, show); err != nil {
		return domain.Show{}, err
	}
	return show, nil
}

func (s *InventoryService) ListShows(ctx context.Context, orgID string) ([]domain.Show, error) {
	if orgID == "" {
		return nil, domain.ErrOrgRequired
	}
	return s.store.ListShows(ctx, orgID)
}

type ProvisionSlotInput struct {
	OrgID         string
	ShowID        string
	AirDate       time.Time
	PlacementType domain.PlacementType
	TotalSpots    int
}

// ProvisionSlot creates a slot with its full capacity available.
func (s *InventoryService) ProvisionSlot(ctx context.Context, in ProvisionSlotInput) (domain.InventorySlot, error) {
	if in.OrgID == "" {
		return domain.InventorySlot{}, domain.ErrOrgRequired
	}
	if in.ShowID == "" || in.AirDate.IsZero() {
		return domain.InventorySlot{}, domain.ErrShowNotFound
	}
	if !domain.ValidPlacementType(in.PlacementType) {
		return domain.InventorySlot{}, domain.ErrInvalidPlacementType
	}
	if in.TotalSpots <= 0 {
		return domain.InventorySlot{}, domain.ErrInvalidSpotCount
	}

	slot := domain.InventorySlot{
		ID:             newID(),
		OrgID:          in.OrgID,
		ShowID:         in.ShowID,
		AirDate:        in.AirDate,
		PlacementType:  in.PlacementType,
		TotalSpots:     in.TotalSpots,
		AvailableSpots: in.TotalSpots,
	}
	if err := s.store.CreateSlot(ctx, slot); err != nil {
		return domain.InventorySlot{}, err
	}
	return slot, nil
}

func (s *InventoryService) ListSlots(ctx context.Context, orgID, showID string) ([]domain.InventorySlot, error) {
	if orgID == "" {
		return nil, domain.ErrOrgRequired
	}
	if showID == "" {
		return nil, domain.ErrShowNotFound
	}
	return s.store.ListSlotsByShow(ctx, orgID, showID)
}
