package dynamo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assurtech/autocover/internal/core"
)

func TestPolicyItemDatesStoredInUTC(t *testing.T) {
	zone := time.FixedZone("UTC+2", 2*60*60)
	end := time.Date(2026, 8, 28, 1, 0, 0, 0, zone)

	item := policyItemFromCore(core.AutoPolicy{EndDate: end})

	assert.Equal(t, "2026-08-27T23:00:00Z", item.EndDate)
	assert.True(t, item.ToCore().EndDate.Equal(end), "round trip must keep the instant")
}

// The renewal index range condition compares end_date strings, so stored
// dates and the cutoff must normalize to the same zone or offsets reorder
// them lexicographically.
func TestRenewalCutoffComparesChronologically(t *testing.T) {
	asOf := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	cutoff := timeToItem(asOf)

	east := time.FixedZone("UTC+2", 2*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)

	// One hour past due, submitted with a positive offset.
	due := policyItemFromCore(core.AutoPolicy{
		EndDate: time.Date(2026, 8, 28, 1, 0, 0, 0, east),
	})
	require.LessOrEqual(t, due.EndDate, cutoff)

	// Chronologically still in term, submitted with a negative offset.
	inTerm := policyItemFromCore(core.AutoPolicy{
		EndDate: time.Date(2026, 8, 27, 20, 0, 0, 0, west),
	})
	require.Greater(t, inTerm.EndDate, cutoff)
}
