// Package domain contains core business types and interfaces.
//
// This file defines the plan catalog: subscription tiers and the monthly
// limits each tier grants for metered actions.
package domain

// PlanTier represents the pricing tier of a subscription.
type PlanTier string

const (
	PlanTierFree       PlanTier = "free"
	PlanTierBasic      PlanTier = "basic"
	PlanTierPro        PlanTier = "pro"
	PlanTierEnterprise PlanTier = "enterprise"
)

// Action identifies a metered, quota-gated user operation.
type Action string

const (
	ActionSearch       Action = "search"
	ActionApplication  Action = "application"
	ActionBookmark     Action = "bookmark"
	ActionResumeMatch  Action = "resume_match"
	ActionInterview    Action = "interview"
	ActionAlert        Action = "alert"
	ActionResumeUpload Action = "resume_upload"
)

// Actions lists every metered action, in the order used by usage snapshots.
var Actions = []Action{
	ActionSearch,
	ActionApplication,
	ActionBookmark,
	ActionResumeMatch,
	ActionInterview,
	ActionAlert,
	ActionResumeUpload,
}

// Valid reports whether the action is a known metered action.
func (a Action) Valid() bool {
	for _, known := range Actions {
		if a == known {
			return true
		}
	}
	return false
}

// Unlimited marks an action with no monthly cap.
const Unlimited = -1

// PlanLimits defines what a tier grants: a monthly limit per action
// (Unlimited = no cap) plus capability flags.
type PlanLimits struct {
	Limits           map[Action]int
	CanApplyDirectly bool
	CanExportData    bool
}

// LimitFor returns the monthly limit for the given action.
// Actions missing from the table are treated as capped at zero, never as
// unlimited: an unknown action must not slip past metering.
func (p PlanLimits) LimitFor(action Action) int {
	if limit, ok := p.Limits[action]; ok {
		return limit
	}
	return 0
}

// TierLimits maps every tier to its plan limits. Every tier defines a limit
// for every action; enterprise is unlimited across the board.
var TierLimits = map[PlanTier]PlanLimits{
	PlanTierFree: {
		Limits: map[Action]int{
			ActionSearch:       50,
			ActionApplication:  5,
			ActionBookmark:     20,
			ActionResumeMatch:  3,
			ActionInterview:    1,
			ActionAlert:        2,
			ActionResumeUpload: 1,
		},
	},
	PlanTierBasic: {
		Limits: map[Action]int{
			ActionSearch:       500,
			ActionApplication:  50,
			ActionBookmark:     100,
			ActionResumeMatch:  20,
			ActionInterview:    10,
			ActionAlert:        5,
			ActionResumeUpload: 3,
		},
		CanApplyDirectly: true,
	},
	PlanTierPro: {
		Limits: map[Action]int{
			ActionSearch:       Unlimited,
			ActionApplication:  200,
			ActionBookmark:     500,
			ActionResumeMatch:  100,
			ActionInterview:    50,
			ActionAlert:        20,
			ActionResumeUpload: 10,
		},
		CanApplyDirectly: true,
		CanExportData:    true,
	},
	PlanTierEnterprise: {
		Limits: map[Action]int{
			ActionSearch:       Unlimited,
			ActionApplication:  Unlimited,
			ActionBookmark:     Unlimited,
			ActionResumeMatch:  Unlimited,
			ActionInterview:    Unlimited,
			ActionAlert:        Unlimited,
			ActionResumeUpload: Unlimited,
		},
		CanApplyDirectly: true,
		CanExportData:    true,
	},
}

// LimitsFor returns the plan limits for a tier, defaulting to the free tier
// for unknown or corrupt tier values. An unrecognized tier must never grant
// unlimited access.
func LimitsFor(tier PlanTier) PlanLimits {
	if limits, ok := TierLimits[tier]; ok {
		return limits
	}
	return TierLimits[PlanTierFree]
}

// ParseTier normalizes a stored tier string, falling back to free.
func ParseTier(s string) PlanTier {
	tier := PlanTier(s)
	if _, ok := TierLimits[tier]; ok {
		return tier
	}
	return PlanTierFree
}
