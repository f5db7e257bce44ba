package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/migrations"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/repositories"
	"github.com/yigit/facultycredits/internal/db"
	"github.com/yigit/facultycredits/internal/pkg/notification"
)

var (
	testNow = time.Date(2024, time.October, 3, 9, 30, 0, 0, time.UTC)
	admin   = models.Actor{ID: 1, Role: models.RoleAdmin}
	faculty = models.Actor{ID: 7, Role: models.RoleFaculty}
	other   = models.Actor{ID: 8, Role: models.RoleFaculty}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Publish(event notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) types() []notification.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]notification.EventType, 0, len(n.events))
	for _, e := range n.events {
		types = append(types, e.Type)
	}
	return types
}

func (n *recordingNotifier) last() notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.events[len(n.events)-1]
}

type testEnv struct {
	svc      *Services
	repos    *repositories.Repositories
	notifier *recordingNotifier
	metrics  *LedgerMetrics
}

func newTestRepositories(t *testing.T) *repositories.Repositories {
	t.Helper()
	sqlDB, err := db.OpenSQLite(filepath.Join(t.TempDir(), "credits.db"))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	database := db.NewSQLiteDatabase(sqlDB)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.NewMigrator(database, zerolog.Nop()).Migrate(context.Background()))
	return repositories.NewRepositories(database)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := newTestRepositories(t)
	notifier := &recordingNotifier{}
	metrics, err := NewLedgerMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	opts := Options{
		Logger:   zerolog.Nop(),
		Notifier: notifier,
		Metrics:  metrics,
		Now:      func() time.Time { return testNow },
	}
	return &testEnv{
		svc:      NewServices(repos, opts),
		repos:    repos,
		notifier: notifier,
		metrics:  metrics,
	}
}

func (e *testEnv) title(t *testing.T, name string, points int64) *models.CreditTitle {
	t.Helper()
	sign := models.SignPositive
	if points < 0 {
		sign = models.SignNegative
	}
	title, err := e.svc.Catalog.CreateTitle(context.Background(), admin, CreateTitleInput{Title: name, Points: points, Sign: sign})
	require.NoError(t, err)
	return title
}

// approvedRemark issues a remark against faculty and approves it.
func (e *testEnv) approvedRemark(t *testing.T, title *models.CreditTitle) *models.CreditEntry {
	t.Helper()
	ctx := context.Background()
	entry, err := e.svc.Ledger.IssueNegative(ctx, admin, IssueNegativeInput{
		FacultyID:     faculty.ID,
		CreditTitleID: title.ID,
		AcademicYear:  "2024-2025",
		Notes:         "grades submitted after deadline",
	})
	require.NoError(t, err)
	entry, err = e.svc.Ledger.Decide(ctx, admin, entry.ID, DecisionInput{Outcome: models.StatusApproved})
	require.NoError(t, err)
	return entry
}
