package model

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Platform tags assigned during provider sync. Matching is an ordered
// case-insensitive substring check against the service name.
const (
	PlatformInstagram = "Instagram"
	PlatformTikTok    = "TikTok"
	PlatformYouTube   = "YouTube"
	PlatformTwitter   = "Twitter"
	PlatformFacebook  = "Facebook"
	PlatformOther     = "Other"
)

// Service is one orderable catalog entry mirrored from a provider.
// (ProviderID, ExternalServiceID) is unique; re-syncing upserts.
type Service struct {
	ID                string
	ProviderID        string
	ExternalServiceID string
	Name              string
	Category          string
	Platform          string
	Description       string
	// Price is the per-unit price as a decimal string, currency-agnostic
	// (mirrors the upstream "rate" field, e.g. "0.001").
	Price     string
	MinOrder  int
	MaxOrder  int
	IsActive  bool
	CreatedAt time.Time
}

// ComputeCharge returns price * quantity rounded to two decimals, as a
// decimal string. The result is never negative and never NaN; a price
// that does not parse to a non-negative finite number is rejected.
func ComputeCharge(price string, quantity int) (string, error) {
	if quantity <= 0 {
		return "", fmt.Errorf("quantity must be positive, got %d", quantity)
	}
	p, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return "", fmt.Errorf("parse price %q: %w", price, err)
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return "", fmt.Errorf("invalid price %q", price)
	}
	charge := math.Round(p*float64(quantity)*100) / 100
	return strconv.FormatFloat(charge, 'f', 2, 64), nil
}
