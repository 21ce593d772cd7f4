package model

import "time"

// APIProvider is an upstream SMM panel whose catalog is mirrored into
// local Service rows. Configuration entity; mutated only by admins.
type APIProvider struct {
	ID        string
	Name      string
	APIURL    string
	APIKey    string
	IsActive  bool
	CreatedAt time.Time
}
