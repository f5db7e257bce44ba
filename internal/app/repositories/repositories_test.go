package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/migrations"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/db"
)

var testNow = time.Date(2024, time.October, 3, 9, 30, 0, 0, time.UTC)

func newSQLiteTestDatabase(t *testing.T) *db.Database {
	t.Helper()
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "credits.db"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	database := db.NewSQLiteDatabase(sqlDB)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.NewMigrator(database, zerolog.Nop()).Migrate(context.Background()))
	return database
}

// newPostgresTestDatabase connects to CREDITS_TEST_DATABASE_URL and wipes the
// ledger tables. Tests using it are skipped when the variable is unset.
func newPostgresTestDatabase(t *testing.T) *db.Database {
	t.Helper()
	url := os.Getenv("CREDITS_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("CREDITS_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := db.OpenPostgresURL(ctx, url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, migrations.NewMigrator(database, zerolog.Nop()).Migrate(ctx))
	_, err = database.SQL.ExecContext(ctx, "TRUNCATE appeals, credit_entries, credit_titles RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return database
}

func seedTitle(t *testing.T, repo *CreditTitleRepository, name string, points int64) *models.CreditTitle {
	t.Helper()
	sign := models.SignPositive
	if points < 0 {
		sign = models.SignNegative
	}
	title := &models.CreditTitle{Title: name, Points: points, Sign: sign, Active: true, CreatedAt: testNow}
	id, err := repo.Create(context.Background(), title)
	require.NoError(t, err)
	title.ID = id
	return title
}

func newEntry(title *models.CreditTitle, facultyID int64, status models.EntryStatus, year string) *models.CreditEntry {
	kind := models.KindSubmission
	if title.Sign == models.SignNegative {
		kind = models.KindRemark
	}
	return &models.CreditEntry{
		FacultyID:     facultyID,
		CreditTitleID: title.ID,
		TitleSnapshot: title.Title,
		Points:        title.Points,
		Sign:          title.Sign,
		Kind:          kind,
		AcademicYear:  year,
		Status:        status,
		CreatedBy:     facultyID,
		CreatedAt:     testNow,
	}
}
