package domain

import "time"

const EventTypeAccountCreated = "AccountCreated"

type AccountCreated struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"createdAt"`
}
