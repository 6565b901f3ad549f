package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/models"
)

const assessmentsSchema = `
CREATE TABLE IF NOT EXISTS assessments (
	id                        UUID PRIMARY KEY,
	subject_id                TEXT,
	created_at                TIMESTAMPTZ NOT NULL,
	primary_concern           TEXT NOT NULL,
	answer_distress           TEXT NOT NULL,
	answer_functioning        TEXT NOT NULL,
	answer_urgency            TEXT NOT NULL,
	answer_safety             TEXT NOT NULL,
	answer_constraints        TEXT NOT NULL,
	latitude                  DOUBLE PRECISION,
	longitude                 DOUBLE PRECISION,
	issue_type                TEXT NOT NULL,
	urgency                   TEXT NOT NULL,
	severity_score            SMALLINT NOT NULL,
	needs_immediate_resources BOOLEAN NOT NULL,
	confidence                DOUBLE PRECISION NOT NULL,
	plan                      JSONB NOT NULL
)`

const insertAssessment = `INSERT INTO assessments (
	id, subject_id, created_at,
	primary_concern, answer_distress, answer_functioning, answer_urgency, answer_safety, answer_constraints,
	latitude, longitude,
	issue_type, urgency, severity_score, needs_immediate_resources, confidence,
	plan
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

// AssessmentStore writes assessment records. It never reads them back.
type AssessmentStore struct {
	db *sql.DB
}

func NewAssessmentStore(db *sql.DB) *AssessmentStore {
	return &AssessmentStore{db: db}
}

func (s *AssessmentStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, assessmentsSchema); err != nil {
		return fmt.Errorf("create assessments table: %w", err)
	}
	return nil
}

func (s *AssessmentStore) SaveAssessment(ctx context.Context, rec models.AssessmentRecord) error {
	plan, err := json.Marshal(rec.Plan)
	if err != nil {
		return apperrors.NewPersistenceFailedError(fmt.Errorf("marshal plan: %w", err))
	}

	c := rec.Plan.Classification
	in := rec.Intake
	_, err = s.db.ExecContext(ctx, insertAssessment,
		rec.ID, nullString(rec.SubjectID), rec.CreatedAt,
		in.PrimaryConcern, in.AnswerDistress, in.AnswerFunctioning, in.AnswerUrgency, in.AnswerSafety, in.AnswerConstraints,
		nullFloat(in.Latitude), nullFloat(in.Longitude),
		string(c.IssueType), string(c.Urgency), c.SeverityScore, c.NeedsImmediateResources, c.Confidence,
		plan,
	)
	if err != nil {
		return apperrors.NewPersistenceFailedError(err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
