package model

// Achievements is a student's achievement record: current streak plus the full
// set of badge IDs they have earned. One row per user, created on first write.
//
// EarnedBadgeIDs is replaced wholesale on update — there is no per-badge
// "award" operation. Callers that want to add one badge send the whole
// collection with the new badge appended.
type Achievements struct {
	Streak         int64    `json:"streak"`
	EarnedBadgeIDs []string `json:"earned_badge_ids"`
}

// DefaultAchievements is the record a user implicitly has before their first
// achievements write: no streak, no badges.
func DefaultAchievements() Achievements {
	return Achievements{EarnedBadgeIDs: []string{}}
}

// AchievementsPatch is a partial update to an Achievements record.
// Same pointer semantics as ProgressPatch: nil means "keep the stored value",
// and an explicit JSON null is indistinguishable from an absent key.
type AchievementsPatch struct {
	Streak         *int64    `json:"streak"`
	EarnedBadgeIDs *[]string `json:"earned_badge_ids"`
}
