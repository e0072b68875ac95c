package domain

import "time"

// Order is the billable record produced when a reservation is confirmed.
// Created at most once per reservation; item data is copied verbatim from the
// reservation so later rate changes cannot alter a booked deal.
type Order struct {
	ID            string
	OrgID         string
	ReservationID string
	OrderNumber   string
	AdvertiserID  string
	AgencyID      string
	CampaignID    string
	NetAmount     int64
	CreatedBy     string
	CreatedAt     time.Time

	Items []OrderItem
}

type OrderItem struct {
	ID            string
	OrderID       string
	ShowID        string
	EpisodeID     string
	AirDate       time.Time
	PlacementType PlacementType
	LengthSeconds int
	Rate          int64
}
