package models

import "time"

// CreditTitle is a catalog category entries are created from. Titles are
// append-only; retiring one only clears Active.
type CreditTitle struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Points      int64     `json:"points"`
	Sign        Sign      `json:"sign"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TitleFilter narrows catalog listings.
type TitleFilter struct {
	Sign       Sign
	ActiveOnly bool
}
