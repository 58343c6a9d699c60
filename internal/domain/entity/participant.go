package entity

import "time"

// Participant is an event-scoped identity resolved from the external
// directory. The chat core only reads it; registration and profile
// management live outside this service.
type Participant struct {
	ID           string    `json:"id" firestore:"id"`
	EventID      string    `json:"event_id" firestore:"eventId"`
	Name         string    `json:"name" firestore:"name"`
	ProfileImage string    `json:"profile_image,omitempty" firestore:"profileImage,omitempty"`
	Position     string    `json:"position,omitempty" firestore:"position,omitempty"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}
