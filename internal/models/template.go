package models

import "time"

// ExamTemplate is a branch-scoped reusable set of aspect/item definitions.
// Cloning copies the definitions into an examination; afterwards the two
// sets evolve independently.
type ExamTemplate struct {
	ID        string    `db:"id" json:"id"`
	BranchID  string    `db:"branch_id" json:"branch_id"`
	Name      string    `db:"name" json:"name"`
	CreatedBy *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Aspects []TemplateAspect `json:"aspects,omitempty"`
}

// TemplateAspect mirrors ExamAspect inside a template.
type TemplateAspect struct {
	ID         string    `db:"id" json:"id"`
	TemplateID string    `db:"template_id" json:"template_id"`
	Name       string    `db:"name" json:"name"`
	Position   int       `db:"position" json:"position"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Items []TemplateItem `json:"items,omitempty"`
}

// TemplateItem mirrors ExamItem inside a template.
type TemplateItem struct {
	ID           string    `db:"id" json:"id"`
	AspectID     string    `db:"aspect_id" json:"aspect_id"`
	Name         string    `db:"name" json:"name"`
	Unit         string    `db:"unit" json:"unit"`
	TargetMale   *float64  `db:"target_male" json:"target_male,omitempty"`
	TargetFemale *float64  `db:"target_female" json:"target_female,omitempty"`
	Direction    Direction `db:"direction" json:"direction"`
	Position     int       `db:"position" json:"position"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
