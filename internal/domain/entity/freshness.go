package entity

// FreshnessStatus labels how old the current rate data is
type FreshnessStatus string

const (
	// StatusLive means rates were fetched less than 10 minutes ago
	StatusLive FreshnessStatus = "live"
	// StatusStale means rates are between 10 and 59 minutes old
	StatusStale FreshnessStatus = "stale"
	// StatusCached means rates are an hour old or more
	StatusCached FreshnessStatus = "cached"
	// StatusOffline means no live fetch ever succeeded and the static snapshot is in use
	StatusOffline FreshnessStatus = "offline"
)

// RateFreshness is derived on demand and never persisted
type RateFreshness struct {
	Status     FreshnessStatus `json:"status"`
	AgeMinutes int             `json:"age_minutes"`
}
