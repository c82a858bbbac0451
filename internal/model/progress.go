package model

// Progress is a student's learning progress record. Each user owns at most one
// row; the first write creates it.
//
// JSON field names are snake_case because the frontend consumes the DB row
// shape directly — these names are part of the wire contract.
type Progress struct {
	ConceptMastery    float64 `json:"concept_mastery"`
	TimeSpent         float64 `json:"time_spent"`
	QuestionsAnswered int64   `json:"questions_answered"`
}

// DefaultProgress is what a user "has" before their first progress write.
// Returned by reads when no row exists, and used as the insert default for
// fields a first write doesn't mention.
func DefaultProgress() Progress {
	return Progress{}
}

// ProgressPatch is a partial update to a Progress record.
//
// POINTER FIELDS FOR "PROVIDED OR NOT":
// A plain float64 can't distinguish "set this to 0" from "don't touch this" —
// both decode to 0. A *float64 can: an absent key leaves the pointer nil,
// a present key allocates a value.
//
// KNOWN EDGE CASE (deliberately preserved):
// An explicit JSON null also decodes to a nil pointer, so `{"time_spent":null}`
// behaves exactly like omitting the field — it keeps the stored value rather
// than clearing it. Loosely-typed clients sending null by accident therefore
// never wipe a field. There is no way to reset a field to its default other
// than sending the default explicitly.
type ProgressPatch struct {
	ConceptMastery    *float64 `json:"concept_mastery"`
	TimeSpent         *float64 `json:"time_spent"`
	QuestionsAnswered *int64   `json:"questions_answered"`
}
