package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/app/repositories"
)

// TitleStore is the part of the catalog repository seeding needs
type TitleStore interface {
	Create(ctx context.Context, title *models.CreditTitle) (int64, error)
	ExistsActiveByTitle(ctx context.Context, name string) (bool, error)
}

// DefaultCatalog is the starter set of credit titles
var DefaultCatalog = []models.CreditTitle{
	{Title: "Journal Publication", Points: 10, Sign: models.SignPositive, Description: "Article published in an indexed journal"},
	{Title: "Conference Paper", Points: 5, Sign: models.SignPositive, Description: "Paper presented at a peer-reviewed conference"},
	{Title: "Funded Research Project", Points: 15, Sign: models.SignPositive, Description: "Principal investigator on an externally funded project"},
	{Title: "Thesis Supervision", Points: 4, Sign: models.SignPositive, Description: "Graduate thesis supervised to completion"},
	{Title: "Late Grade Submission", Points: -5, Sign: models.SignNegative, Description: "Final grades submitted after the deadline"},
	{Title: "Missed Committee Meeting", Points: -2, Sign: models.SignNegative, Description: "Unexcused absence from an assigned committee meeting"},
	{Title: "Unexcused Class Absence", Points: -3, Sign: models.SignNegative, Description: "Scheduled class not held without notice"},
}

// CreateDefaultCatalog inserts the default titles that have no active
// namesake yet. Returns how many titles were created.
func CreateDefaultCatalog(ctx context.Context, titles TitleStore, now time.Time, lgr zerolog.Logger) (int, error) {
	lgr.Info().Msg("Checking/Creating default credit titles...")

	created := 0
	var finalErr error // collect errors without stopping the process
	for _, def := range DefaultCatalog {
		exists, err := titles.ExistsActiveByTitle(ctx, def.Title)
		if err != nil {
			lgr.Error().Err(err).Str("title", def.Title).Msg("Error checking credit title")
			finalErr = errors.Join(finalErr, err)
			continue
		}
		if exists {
			continue
		}

		title := def
		title.Active = true
		title.CreatedAt = now
		if _, err := titles.Create(ctx, &title); err != nil {
			// A concurrent seeder may have won the unique index
			if errors.Is(err, repositories.ErrDuplicate) {
				continue
			}
			lgr.Error().Err(err).Str("title", def.Title).Msg("Error creating credit title")
			finalErr = errors.Join(finalErr, fmt.Errorf("seed %q: %w", def.Title, err))
			continue
		}
		created++
	}

	lgr.Info().Int("created", created).Msg("Default credit titles checked")
	return created, finalErr
}
