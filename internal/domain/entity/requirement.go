package entity

import "time"

type Requirement struct {
	ID                 string    `json:"id" firestore:"id"`
	EventID            string    `json:"event_id" firestore:"eventId"`
	Title              string    `json:"title" firestore:"title"`
	Description        string    `json:"description" firestore:"description"`
	Budget             float64   `json:"budget,omitempty" firestore:"budget,omitempty"`
	Currency           string    `json:"currency,omitempty" firestore:"currency,omitempty"`
	LocationPreference string    `json:"location_preference,omitempty" firestore:"locationPreference,omitempty"`
	PostedBy           string    `json:"posted_by" firestore:"postedBy"`
	BiddersCount       int       `json:"bidders_count" firestore:"biddersCount"`
	CreatedAt          time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt          time.Time `json:"updated_at" firestore:"updatedAt"`
}
