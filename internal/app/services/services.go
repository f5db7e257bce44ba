package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/repositories"
	"github.com/yigit/facultycredits/internal/pkg/notification"
)

// TitleStore persists catalog titles
type TitleStore interface {
	Create(ctx context.Context, title *models.CreditTitle) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.CreditTitle, error)
	ExistsActiveByTitle(ctx context.Context, name string) (bool, error)
	Deactivate(ctx context.Context, id int64) error
	List(ctx context.Context, filter models.TitleFilter) ([]*models.CreditTitle, error)
}

// EntryStore persists ledger entries and appeals. ApplyTransition must swap the
// status only if it still equals t.From and return repositories.ErrStaleState
// otherwise.
type EntryStore interface {
	Create(ctx context.Context, entry *models.CreditEntry) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.CreditEntry, error)
	List(ctx context.Context, filter models.EntryFilter) ([]*models.CreditEntry, int64, error)
	SumApproved(ctx context.Context, facultyID int64, academicYear string) (int64, error)
	CountByStatus(ctx context.Context, facultyID int64, academicYear string) (map[models.EntryStatus]int64, error)
	ApplyTransition(ctx context.Context, t *models.EntryTransition) error
}

// Notifier receives events after the ledger change they describe is committed
type Notifier interface {
	Publish(event notification.Event)
}

// NopNotifier discards events
type NopNotifier struct{}

func (NopNotifier) Publish(notification.Event) {}

// Options carries optional collaborators shared by the services
type Options struct {
	Logger   zerolog.Logger
	Notifier Notifier
	Metrics  *LedgerMetrics
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Notifier == nil {
		o.Notifier = NopNotifier{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Services holds all the service instances
type Services struct {
	Catalog CatalogService
	Ledger  LedgerService
	Balance BalanceService
}

// NewServices wires the services over the repositories
func NewServices(repos *repositories.Repositories, opts Options) *Services {
	return NewServicesWithStores(repos.CreditTitleRepository, repos.CreditEntryRepository, opts)
}

// NewServicesWithStores wires the services over arbitrary stores
func NewServicesWithStores(titles TitleStore, entries EntryStore, opts Options) *Services {
	opts = opts.withDefaults()
	catalog := NewCatalogService(titles, opts)
	return &Services{
		Catalog: catalog,
		Ledger:  NewLedgerService(entries, catalog, opts),
		Balance: NewBalanceService(entries, opts),
	}
}
