package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "careplan-workers/internal/common/errors"
	"careplan-workers/internal/models"
)

func testRecord() models.AssessmentRecord {
	lat, lng := 44.2262, -76.4916
	return models.AssessmentRecord{
		ID:        "6f1c1d7e-7d0e-4c55-9a7b-1f6f1b1f0a11",
		SubjectID: "user-42",
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Intake: models.IntakeRecord{
			PrimaryConcern:    "stress",
			AnswerDistress:    "moderate",
			AnswerFunctioning: "sleeping badly",
			AnswerUrgency:     "this week",
			AnswerSafety:      "no",
			AnswerConstraints: "no car",
			Latitude:          &lat,
			Longitude:         &lng,
		},
		Plan: models.Plan{
			Classification: models.FallbackClassification(),
			Pathway:        []models.ResourceEntry{},
			Exercises:      []models.Exercise{},
		},
	}
}

func TestAssessmentStore_SaveAssessment(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := testRecord()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assessments")).
		WithArgs(
			rec.ID, "user-42", rec.CreatedAt,
			"stress", "moderate", "sleeping badly", "this week", "no", "no car",
			44.2262, -76.4916,
			"general_support", "soon", 2, false, 0.0,
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAssessmentStore(db)
	require.NoError(t, store.SaveAssessment(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_SaveAssessment_NoCoordinatesOrSubject(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rec := testRecord()
	rec.SubjectID = ""
	rec.Intake.Latitude = nil
	rec.Intake.Longitude = nil

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assessments")).
		WithArgs(
			rec.ID, nil, rec.CreatedAt,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			nil, nil,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, NewAssessmentStore(db).SaveAssessment(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_SaveAssessment_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO assessments")).
		WillReturnError(errors.New("connection reset"))

	err = NewAssessmentStore(db).SaveAssessment(context.Background(), testRecord())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodePersistenceFailed, apperrors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssessmentStore_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS assessments")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewAssessmentStore(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
