package model

import "time"

// PipelineRun is the history row written after each successful run
type PipelineRun struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	CIK           int64     `db:"cik" json:"cik"`
	EntityName    string    `db:"entity_name" json:"entity_name"`
	FactRows      int       `db:"fact_rows" json:"fact_rows"`
	AttributeRows int       `db:"attribute_rows" json:"attribute_rows"`
	Skipped       int       `db:"skipped" json:"skipped"`
	WalkMode      string    `db:"walk_mode" json:"walk_mode"`
	StartedAt     time.Time `db:"started_at" json:"started_at"`
	FinishedAt    time.Time `db:"finished_at" json:"finished_at"`
}
