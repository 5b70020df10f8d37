package entity

import "time"

const (
	// SchemaVersionLegacy is the first persisted-record layout, which carried
	// neither a completion flag nor a start timestamp.
	SchemaVersionLegacy = "1"

	// SchemaVersionCurrent is the layout written by this build.
	SchemaVersionCurrent = "2"
)

// InterviewSettings describes a fully specified interview. Every field is
// required before an interview may begin.
type InterviewSettings struct {
	Role          string `json:"role" validate:"required"`
	Level         string `json:"level" validate:"required"`
	QuestionCount int    `json:"questionCount" validate:"required,gt=0"`
	Language      string `json:"language" validate:"required"`
}

// Question is one asked question and the answer given so far.
type Question struct {
	ID      string    `json:"id"`
	Text    string    `json:"text"`
	Answer  string    `json:"answer"`
	AskedAt time.Time `json:"askedAt"`
}

// InterviewSession is the persisted snapshot of an in-progress interview.
// A record is only loadable while its owner matches the active identity and
// its age, measured from LastUpdated, is within the configured TTL.
type InterviewSession struct {
	SchemaVersion        string            `json:"schemaVersion"`
	OwnerIdentity        Identity          `json:"ownerIdentity"`
	Settings             InterviewSettings `json:"settings"`
	Questions            []Question        `json:"questions"`
	CurrentQuestionIndex int               `json:"currentQuestionIndex"`
	IsCompleted          bool              `json:"isCompleted"`
	StartTime            time.Time         `json:"startTime"`
	LastUpdated          time.Time         `json:"lastUpdated"`
}

// OwnedBy reports whether the record belongs to the given identity.
func (s *InterviewSession) OwnedBy(identity Identity) bool {
	return s.OwnerIdentity == identity
}

// Expired reports whether the record's age exceeds ttl at the given instant.
func (s *InterviewSession) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastUpdated) > ttl
}

// Clone returns a deep copy, so stamping on save never mutates caller state.
func (s *InterviewSession) Clone() *InterviewSession {
	clone := *s
	clone.Questions = make([]Question, len(s.Questions))
	copy(clone.Questions, s.Questions)

	return &clone
}
