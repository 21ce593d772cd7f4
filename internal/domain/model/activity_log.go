package model

import "time"

// Activity log entry types written by the back office and the order flow.
const (
	ActivityOrderCreated      = "order_created"
	ActivityKeysGenerated     = "api_keys_generated"
	ActivityProviderCreated   = "api_provider_created"
	ActivityServicesFetched   = "services_fetched"
	ActivityAdminLoginFailed  = "admin_login_failed"
	ActivityAdminLoggedIn     = "admin_logged_in"
	ActivityOrderStatusSynced = "order_status_synced"
)

// ActivityLog is an append-only audit record. Never mutated or deleted.
type ActivityLog struct {
	ID          string
	Type        string
	Description string
	Metadata    map[string]any
	CreatedAt   time.Time
}
