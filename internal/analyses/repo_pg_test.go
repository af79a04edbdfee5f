package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{"id", "user_id", "org_id", "source_title", "doc_fingerprint", "result", "model", "prompt_version", "created_at", "updated_at"}

const testAnalysisID = "7b0e2f5c-1d7a-4c3e-9d54-0f3c6a1b2c3d"

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return &PGRepo{DB: db}, mock
}

func TestPGRepoCreateStoresRiskColumn(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rec := Record{
		ID:            testAnalysisID,
		UserID:        "user-1",
		SourceTitle:   "NDA",
		Result:        AnalysisResult{Summary: "s", OverallRisk: RiskHigh},
		Model:         "gpt-4o-mini",
		PromptVersion: "contract-v1",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	mock.ExpectExec("INSERT INTO analyses").
		WithArgs(
			rec.ID,
			rec.UserID,
			nil, // org_id
			rec.SourceTitle,
			nil, // doc_fingerprint
			sqlmock.AnyArg(),
			"high",
			rec.Model,
			rec.PromptVersion,
			now,
			now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), rec))
}

func TestPGRepoGetScopesToOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	payload, err := json.Marshal(AnalysisResult{
		Summary:     "Liability is uncapped.",
		OverallRisk: RiskHigh,
		RedFlags:    []RedFlag{{Type: SeverityCritical, Title: "Uncapped liability"}},
	})
	require.NoError(t, err)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
		WithArgs(testAnalysisID, "user-1").
		WillReturnRows(sqlmock.NewRows(recordColumns).
			AddRow(testAnalysisID, "user-1", "org-9", "NDA", "abc123", payload, "gpt-4o-mini", "contract-v1", now, now))

	rec, err := repo.Get(context.Background(), "user-1", testAnalysisID)
	require.NoError(t, err)
	assert.Equal(t, "org-9", rec.OrgID)
	assert.Equal(t, "abc123", rec.DocFingerprint)
	assert.Equal(t, RiskHigh, rec.Result.OverallRisk)
	assert.Len(t, rec.Result.RedFlags, 1)
	assert.NotNil(t, rec.Result.Recommendations)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
		WithArgs(testAnalysisID, "intruder").
		WillReturnRows(sqlmock.NewRows(recordColumns))
	_, err = repo.Get(context.Background(), "intruder", testAnalysisID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoGetRejectsMalformedID(t *testing.T) {
	repo, _ := newMockRepo(t)
	_, err := repo.Get(context.Background(), "user-1", "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPGRepoGetWrapsDriverErrors(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1 AND user_id = $2")).
		WithArgs(testAnalysisID, "user-1").
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Get(context.Background(), "user-1", testAnalysisID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestPGRepoListClampsPaging(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("ORDER BY created_at DESC").
		WithArgs("user-1", 100, 0).
		WillReturnRows(sqlmock.NewRows(recordColumns))

	out, err := repo.ListByUser(context.Background(), "user-1", 500, -3)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestPGRepoDeleteNotOwned(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("DELETE FROM analyses").
		WithArgs(testAnalysisID, "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "intruder", testAnalysisID), ErrNotFound)
}
