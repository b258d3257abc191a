package domain

import "time"

// Token roles
const (
	RoleClient   = "client"
	RoleOperator = "operator"
)

// Client is the owner of exactly one account; its ID doubles as the account ID.
type Client struct {
	CreatedAt      time.Time
	ID             string
	Name           string
	Email          string
	HashedPassword string
}
