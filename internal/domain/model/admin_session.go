package model

import "time"

// AdminSession is an opaque bearer token for the admin back office.
// A session past ExpiresAt is treated as absent and lazily deleted on
// next use.
type AdminSession struct {
	ID           string
	SessionToken string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

func (s *AdminSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
