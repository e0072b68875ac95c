package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusHeld      ReservationStatus = "held"
	ReservationStatusConfirmed ReservationStatus = "confirmed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// Terminal reports whether no further transition may leave the status.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusCancelled || s == ReservationStatusExpired
}

type ItemStatus string

const (
	ItemStatusHeld     ItemStatus = "held"
	ItemStatusBooked   ItemStatus = "booked"
	ItemStatusReleased ItemStatus = "released"
)

// Reservation is a holder's claim over a set of inventory slots for a limited
// time. Once a terminal status is reached the row is immutable; further
// changes require a new reservation.
type Reservation struct {
	ID                string
	OrgID             string
	AdvertiserID      string
	AgencyID          string
	CampaignID        string
	Status            ReservationStatus
	HoldDurationHours int
	ExpiresAt         time.Time
	TotalAmount       int64
	Priority          int
	Notes             string
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	Items []ReservationItem
}

// ReservationItem holds exactly one spot in one slot. It never outlives its
// parent reservation; releasing keeps the row for audit.
type ReservationItem struct {
	ID            string
	ReservationID string
	SlotID        string
	ShowID        string
	EpisodeID     string
	AirDate       time.Time
	PlacementType PlacementType
	LengthSeconds int
	Rate          int64
	Status        ItemStatus
}

// ReservationPatch carries the fields a caller may change while a
// reservation is still held. Nil means leave unchanged.
type ReservationPatch struct {
	CampaignID        *string
	Priority          *int
	Notes             *string
	HoldDurationHours *int
}

type ReservationFilter struct {
	Status       ReservationStatus
	AdvertiserID string
	CampaignID   string
	Page         int
	Limit        int
}

type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}
