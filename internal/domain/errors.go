package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrOrgRequired            = errors.New("organization id required")
	ErrActorRequired          = errors.New("actor id required")
	ErrAdvertiserRequired     = errors.New("advertiser id required")
	ErrNoItems                = errors.New("at least one item required")
	ErrInvalidHoldDuration    = errors.New("invalid hold duration")
	ErrInvalidPlacementType   = errors.New("invalid placement type")
	ErrInvalidLength          = errors.New("invalid spot length")
	ErrInvalidRate            = errors.New("invalid rate")
	ErrInvalidSpotCount       = errors.New("invalid spot count")
	ErrShowNameRequired       = errors.New("show name required")
	ErrShowNotFound           = errors.New("show not found")
	ErrSlotNotFound           = errors.New("inventory slot not found")
	ErrSlotAlreadyExists      = errors.New("inventory slot already exists")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrInsufficientInventory  = errors.New("insufficient inventory")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidStatusFilter    = errors.New("invalid status filter")
	ErrReservationExpired     = errors.New("reservation expired")
	ErrInvalidSlotState       = errors.New("invalid slot state")
	ErrInventoryCorrupt       = errors.New("inventory counts corrupt")
	ErrInvalidID              = errors.New("invalid id")
)

// InsufficientInventoryError names the exact requested spot that could not be
// held so callers can report which item failed. It matches
// ErrInsufficientInventory under errors.Is.
type InsufficientInventoryError struct {
	ItemIndex     int
	ShowID        string
	AirDate       time.Time
	PlacementType PlacementType
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for item %d (show %s, %s, %s)",
		e.ItemIndex, e.ShowID, e.AirDate.Format("2006-01-02"), e.PlacementType)
}

func (e *InsufficientInventoryError) Unwrap() error {
	return ErrInsufficientInventory
}
