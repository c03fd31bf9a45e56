package domain

import "time"

// UserPlan enumerates entitlement tiers.
type UserPlan string

const (
	UserPlanTrial      UserPlan = "trial"
	UserPlanSubscriber UserPlan = "subscriber"
)

// UserRecord is the ledger's authoritative state for one identity.
type UserRecord struct {
	Identity           string
	Email              string
	UsedCount          int
	FreeQuota          int
	SubscriptionExpiry time.Time // zero value means no subscription
	CreatedAt          time.Time
}

// Subscribed reports whether the record carries an active subscription at t.
// An expiry in the past is equivalent to no subscription at all.
func (u UserRecord) Subscribed(t time.Time) bool {
	return !u.SubscriptionExpiry.IsZero() && u.SubscriptionExpiry.After(t)
}

// Remaining returns the free questions left on the trial. Subscribers keep
// their historical count, so this can be zero while access is still granted.
func (u UserRecord) Remaining() int {
	if r := u.FreeQuota - u.UsedCount; r > 0 {
		return r
	}
	return 0
}

// Plan derives the entitlement tier at t.
func (u UserRecord) Plan(t time.Time) UserPlan {
	if u.Subscribed(t) {
		return UserPlanSubscriber
	}
	return UserPlanTrial
}
