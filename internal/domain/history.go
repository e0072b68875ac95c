package domain

import "time"

// StatusChange is one append-only audit row per reservation transition.
// FromStatus is nil for the initial hold. Rows are never updated or deleted.
type StatusChange struct {
	ID            string
	ReservationID string
	FromStatus    *ReservationStatus
	ToStatus      ReservationStatus
	Reason        string
	ActorID       string
	CreatedAt     time.Time
}
