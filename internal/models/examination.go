package models

import "time"

// Direction states whether a lower or higher raw measurement is better.
type Direction string

const (
	// DirectionMax means a higher raw value beats the target (e.g. jump distance).
	DirectionMax Direction = "max"
	// DirectionMin means a lower raw value beats the target (e.g. race time).
	DirectionMin Direction = "min"
)

// Valid reports whether the direction is one of the two recognised values.
func (d Direction) Valid() bool {
	return d == DirectionMax || d == DirectionMin
}

// Examination is a dated special-examination event scoped to one branch category.
type Examination struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	BranchID   string     `db:"branch_id" json:"branch_id"`
	CategoryID *string    `db:"category_id" json:"category_id,omitempty"`
	HeldAt     time.Time  `db:"held_at" json:"held_at"`
	Notes      *string    `db:"notes" json:"notes,omitempty"`
	CreatedBy  *string    `db:"created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at" json:"-"`

	Aspects []ExamAspect `json:"aspects,omitempty"`
}

// ExamAspect groups related test items inside one examination.
type ExamAspect struct {
	ID            string     `db:"id" json:"id"`
	ExaminationID string     `db:"examination_id" json:"examination_id"`
	Name          string     `db:"name" json:"name"`
	Position      int        `db:"position" json:"position"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at" json:"-"`

	Items []ExamItem `json:"items,omitempty"`
}

// ExamItem is one measurable test within an aspect.
type ExamItem struct {
	ID           string     `db:"id" json:"id"`
	AspectID     string     `db:"aspect_id" json:"aspect_id"`
	Name         string     `db:"name" json:"name"`
	Unit         string     `db:"unit" json:"unit"`
	TargetMale   *float64   `db:"target_male" json:"target_male,omitempty"`
	TargetFemale *float64   `db:"target_female" json:"target_female,omitempty"`
	Direction    Direction  `db:"direction" json:"direction"`
	Position     int        `db:"position" json:"position"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt    *time.Time `db:"deleted_at" json:"-"`
}

// TargetFor selects the configured target for a participant gender code.
// Any code other than the male code falls back to the female target; callers
// that care about unknown codes must check the gender explicitly first.
func (i ExamItem) TargetFor(gender string) *float64 {
	if gender == GenderMale {
		return i.TargetMale
	}
	return i.TargetFemale
}

// ExaminationMember links a participant to an examination.
type ExaminationMember struct {
	ID            string          `db:"id" json:"id"`
	ExaminationID string          `db:"examination_id" json:"examination_id"`
	ParticipantID string          `db:"participant_id" json:"participant_id"`
	Kind          ParticipantKind `db:"kind" json:"kind"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`

	FullName string `db:"full_name" json:"full_name"`
	Gender   string `db:"gender" json:"gender"`
}

// ExaminationFilter narrows examination listings.
type ExaminationFilter struct {
	BranchID   string
	CategoryID string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PerPage    int
}
