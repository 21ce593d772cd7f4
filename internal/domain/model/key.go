package model

import "time"

// RedemptionKey is an opaque token a customer exchanges for a bounded
// number of service orders.
//
// UsageCount tracks the number of successful redemption calls, not the
// quantity consumed; UsageLimit doubles as the maximum quantity allowed
// in a single order. Both facts mirror how keys were sold historically,
// so the conflation is kept deliberately.
type RedemptionKey struct {
	ID       string
	KeyValue string
	// ServiceIDs is the permitted-service set. Key generation assumes
	// one service per key; the first entry is the resolved service
	// during validation.
	ServiceIDs []string
	UsageLimit int
	UsageCount int
	IsActive   bool
	CreatedAt  time.Time
}

// Exhausted reports whether the key has no redemptions left. An
// exhausted key stays active but is rejected for new orders.
func (k *RedemptionKey) Exhausted() bool {
	return k.UsageCount >= k.UsageLimit
}

// RemainingUses never goes below zero even if the counter was
// over-incremented by a legacy write path.
func (k *RedemptionKey) RemainingUses() int {
	if r := k.UsageLimit - k.UsageCount; r > 0 {
		return r
	}
	return 0
}

// Permits reports membership of serviceID in the permitted set.
func (k *RedemptionKey) Permits(serviceID string) bool {
	for _, id := range k.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
