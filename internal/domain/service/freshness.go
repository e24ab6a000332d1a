package service

import (
	"math"
	"time"

	"github.com/damon-houk/currency-converter/internal/domain/entity"
)

const (
	liveThresholdMinutes  = 10
	staleThresholdMinutes = 60
)

// ClassifyFreshness labels rate data by the whole minutes elapsed since lastUpdate.
// A nil lastUpdate means no live fetch has succeeded.
func ClassifyFreshness(lastUpdate *time.Time, now time.Time) entity.RateFreshness {
	if lastUpdate == nil || lastUpdate.IsZero() {
		return entity.RateFreshness{Status: entity.StatusOffline}
	}

	age := int(math.Floor(now.Sub(*lastUpdate).Minutes()))
	if age < 0 {
		age = 0
	}

	switch {
	case age < liveThresholdMinutes:
		return entity.RateFreshness{Status: entity.StatusLive, AgeMinutes: age}
	case age < staleThresholdMinutes:
		return entity.RateFreshness{Status: entity.StatusStale, AgeMinutes: age}
	default:
		return entity.RateFreshness{Status: entity.StatusCached, AgeMinutes: age}
	}
}
