package models

import "time"

// Band is the qualitative rating derived from a bounded performance percentage.
type Band string

const (
	BandVeryLow    Band = "KURANG_SEKALI"
	BandLow        Band = "KURANG"
	BandMedium     Band = "SEDANG"
	BandNearTarget Band = "MENDEKATI_TARGET"
	BandTarget     Band = "TARGET"
)

// ItemResult stores the scored outcome of one test item for one participant.
// Rows are always written whole; a nil Bounded means the measurement or the
// target was missing, never that the participant scored zero.
type ItemResult struct {
	ID            string    `db:"id" json:"id"`
	ExaminationID string    `db:"examination_id" json:"examination_id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	ItemID        string    `db:"item_id" json:"item_id"`
	RawValue      *string   `db:"raw_value" json:"raw_value,omitempty"`
	Measurement   *float64  `db:"measurement" json:"measurement,omitempty"`
	Bounded       *float64  `db:"bounded_pct" json:"bounded_pct,omitempty"`
	Real          *float64  `db:"real_pct" json:"real_pct,omitempty"`
	Band          *Band     `db:"band" json:"band,omitempty"`
	CreatedBy     *string   `db:"created_by" json:"-"`
	UpdatedBy     *string   `db:"updated_by" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	ItemName string `db:"item_name" json:"item_name,omitempty"`
	AspectID string `db:"aspect_id" json:"aspect_id,omitempty"`
}

// AspectResult stores the averaged outcome of one aspect for one participant.
type AspectResult struct {
	ID            string    `db:"id" json:"id"`
	ExaminationID string    `db:"examination_id" json:"examination_id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	AspectID      string    `db:"aspect_id" json:"aspect_id"`
	Bounded       *float64  `db:"bounded_pct" json:"bounded_pct,omitempty"`
	Band          *Band     `db:"band" json:"band,omitempty"`
	CreatedBy     *string   `db:"created_by" json:"-"`
	UpdatedBy     *string   `db:"updated_by" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	AspectName string `db:"aspect_name" json:"aspect_name,omitempty"`
}

// OverallResult stores the examination-level outcome for one participant.
type OverallResult struct {
	ID            string    `db:"id" json:"id"`
	ExaminationID string    `db:"examination_id" json:"examination_id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	Bounded       *float64  `db:"bounded_pct" json:"bounded_pct,omitempty"`
	Band          *Band     `db:"band" json:"band,omitempty"`
	CreatedBy     *string   `db:"created_by" json:"-"`
	UpdatedBy     *string   `db:"updated_by" json:"-"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	ParticipantName string `db:"participant_name" json:"participant_name,omitempty"`
}

// ResultSheet bundles the three result levels written by a single save.
type ResultSheet struct {
	Items   []ItemResult   `json:"items"`
	Aspects []AspectResult `json:"aspects"`
	Overall OverallResult  `json:"overall"`
}

// TrendDirection describes the movement between the first and last point of a series.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// SeriesPoint is one examination's value inside a chronological series.
// Value stays nil when the participant has no result for that examination.
type SeriesPoint struct {
	ExaminationID   string    `json:"examination_id"`
	ExaminationName string    `json:"examination_name"`
	HeldAt          time.Time `json:"held_at"`
	Value           *float64  `json:"value"`
}

// TrendSeries is a named chronological series plus its trend.
type TrendSeries struct {
	AspectName string         `json:"aspect_name,omitempty"`
	Points     []SeriesPoint  `json:"points"`
	Trend      TrendDirection `json:"trend"`
}

// ComparisonRow is one participant's series for one aspect name across examinations.
type ComparisonRow struct {
	ParticipantID   string         `json:"participant_id"`
	ParticipantName string         `json:"participant_name"`
	AspectName      string         `json:"aspect_name"`
	Points          []SeriesPoint  `json:"points"`
	Trend           TrendDirection `json:"trend"`
}

// ComparisonMatrix is the full cross-examination comparison for a branch.
type ComparisonMatrix struct {
	BranchID       string          `json:"branch_id"`
	ExaminationIDs []string        `json:"examination_ids"`
	AspectNames    []string        `json:"aspect_names"`
	Rows           []ComparisonRow `json:"rows"`
	Overall        []ComparisonRow `json:"overall"`
}

// RankingEntry is one participant's position in a ranking listing.
type RankingEntry struct {
	Rank            int      `json:"rank"`
	ParticipantID   string   `json:"participant_id"`
	ParticipantName string   `json:"participant_name"`
	Score           float64  `json:"score"`
	Band            *Band    `json:"band,omitempty"`
	Examinations    int      `json:"examinations,omitempty"`
}

// OverallRow is the flat read-model row backing comparison and ranking queries.
type OverallRow struct {
	ExaminationID   string    `db:"examination_id"`
	ExaminationName string    `db:"examination_name"`
	HeldAt          time.Time `db:"held_at"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	Bounded         *float64  `db:"bounded_pct"`
	Band            *Band     `db:"band"`
}

// AspectRow is the flat read-model row for aspect-level comparison queries.
type AspectRow struct {
	ExaminationID   string    `db:"examination_id"`
	ExaminationName string    `db:"examination_name"`
	HeldAt          time.Time `db:"held_at"`
	ParticipantID   string    `db:"participant_id"`
	ParticipantName string    `db:"participant_name"`
	AspectName      string    `db:"aspect_name"`
	Bounded         *float64  `db:"bounded_pct"`
}
