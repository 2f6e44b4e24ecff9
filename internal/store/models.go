package store

import (
	"encoding/json"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is an identity known to the service. Anonymous accounts have no
// email and no subject and are never Registered.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Subject      string    `json:"-"` // "<issuer>|<sub>" for OAuth identities
	Registered   bool      `json:"registered"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type SavedQuery struct {
	ID                        string          `json:"id"`
	Query                     string          `json:"query"`
	Response                  string          `json:"response"`
	SynthesizedRecommendation string          `json:"synthesizedRecommendation"`
	ChartData                 json.RawMessage `json:"chartData,omitempty"` // JSON array of flat records
	ChartType                 string          `json:"chartType,omitempty"`
	ChartTitle                string          `json:"chartTitle,omitempty"`
	Timestamp                 *time.Time      `json:"timestamp"` // Server assigned, nil until committed
}

type Source struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	APIKey      string    `json:"-"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	CreatedBy   string    `json:"createdBy"`
}
