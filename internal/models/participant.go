package models

import "time"

// ParticipantKind distinguishes the three membership roles an examination accepts.
type ParticipantKind string

const (
	// KindAthlete participants carry a scoreable profile.
	KindAthlete ParticipantKind = "ATLET"
	// KindCoach participants attend but are never scored.
	KindCoach ParticipantKind = "PELATIH"
	// KindSupport participants (medical/physio staff) attend but are never scored.
	KindSupport ParticipantKind = "PENDUKUNG"
)

// Scoreable reports whether results may be recorded for this kind.
func (k ParticipantKind) Scoreable() bool {
	return k == KindAthlete
}

// Valid reports whether the kind is one of the recognised values.
func (k ParticipantKind) Valid() bool {
	switch k {
	case KindAthlete, KindCoach, KindSupport:
		return true
	}
	return false
}

// Gender codes follow the federation registry ("L" male, "P" female).
const (
	GenderMale   = "L"
	GenderFemale = "P"
)

// Participant is a registered member of a sport branch.
type Participant struct {
	ID        string          `db:"id" json:"id"`
	FullName  string          `db:"full_name" json:"full_name"`
	Kind      ParticipantKind `db:"kind" json:"kind"`
	Gender    string          `db:"gender" json:"gender"`
	BranchID  string          `db:"branch_id" json:"branch_id"`
	BirthDate *time.Time      `db:"birth_date" json:"birth_date,omitempty"`
	Active    bool            `db:"active" json:"active"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}

// ParticipantFilter narrows participant listings.
type ParticipantFilter struct {
	BranchID string
	Kind     ParticipantKind
	Search   string
	Page     int
	PerPage  int
}
