package app

import "github.com/google/uuid"

func newID() string {
	return uuid.NewString()
}

// SystemActorID marks transitions performed by the platform itself, such as
// sweeper expirations, in the status history.
const SystemActorID = "00000000-0000-0000-0000-000000000000"
