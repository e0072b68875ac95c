package domain

import "time"

type PlacementType string

const (
	PlacementPreroll  PlacementType = "preroll"
	PlacementMidroll  PlacementType = "midroll"
	PlacementPostroll PlacementType = "postroll"
	PlacementHostRead PlacementType = "host_read"
)

// ValidPlacementType reports whether p is one of the sellable placements.
func ValidPlacementType(p PlacementType) bool {
	switch p {
	case PlacementPreroll, PlacementMidroll, PlacementPostroll, PlacementHostRead:
		return true
	}
	return false
}

// InventorySlot is the unit of sellable inventory for one show, air date and
// placement type. Spot counts are mutated only through the ledger's guarded
// updates; slots are provisioned by inventory planning, never by the
// reservation engine.
type InventorySlot struct {
	ID             string
	OrgID          string
	ShowID         string
	AirDate        time.Time
	PlacementType  PlacementType
	TotalSpots     int
	AvailableSpots int
	ReservedSpots  int
	BookedSpots    int
}

// CheckCounts verifies total = available + reserved + booked with no negative
// component. A failure here means the ledger invariant was broken.
func (s InventorySlot) CheckCounts() error {
	if s.AvailableSpots < 0 || s.ReservedSpots < 0 || s.BookedSpots < 0 {
		return ErrInventoryCorrupt
	}
	if s.TotalSpots != s.AvailableSpots+s.ReservedSpots+s.BookedSpots {
		return ErrInventoryCorrupt
	}
	return nil
}
