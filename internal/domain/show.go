package domain

import "time"

// Show is a podcast program whose episodes carry sellable ad slots.
type Show struct {
	ID        string
	OrgID     string
	Name      string
	CreatedAt time.Time
}
