package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/facultycredits/internal/app/models"
	"github.com/yigit/facultycredits/internal/pkg/apperrors"
)

func TestCreateTitleValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.title(t, "Journal Paper", 10)

	tests := []struct {
		name  string
		actor models.Actor
		input CreateTitleInput
		kind  error
	}{
		{"faculty cannot create", faculty, CreateTitleInput{Title: "X", Points: 1, Sign: models.SignPositive}, apperrors.ErrPermissionDenied},
		{"zero points", admin, CreateTitleInput{Title: "X", Points: 0, Sign: models.SignPositive}, apperrors.ErrValidationFailed},
		{"blank title", admin, CreateTitleInput{Title: "   ", Points: 1, Sign: models.SignPositive}, apperrors.ErrValidationFailed},
		{"unknown sign", admin, CreateTitleInput{Title: "X", Points: 1, Sign: "neutral"}, apperrors.ErrValidationFailed},
		{"sign mismatch", admin, CreateTitleInput{Title: "X", Points: -3, Sign: models.SignPositive}, apperrors.ErrValidationFailed},
		{"duplicate active", admin, CreateTitleInput{Title: "  journal paper ", Points: 4, Sign: models.SignPositive}, apperrors.ErrValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Catalog.CreateTitle(ctx, tt.actor, tt.input)
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestDeactivateTitle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	paper := env.title(t, "Journal Paper", 10)
	env.title(t, "Late Grade Submission", -5)

	assert.ErrorIs(t, env.svc.Catalog.DeactivateTitle(ctx, faculty, paper.ID), apperrors.ErrPermissionDenied)
	require.NoError(t, env.svc.Catalog.DeactivateTitle(ctx, admin, paper.ID))
	require.NoError(t, env.svc.Catalog.DeactivateTitle(ctx, admin, paper.ID))
	assert.ErrorIs(t, env.svc.Catalog.DeactivateTitle(ctx, admin, 999), apperrors.ErrResourceNotFound)

	active, err := env.svc.Catalog.ListTitles(ctx, models.TitleFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "Late Grade Submission", active[0].Title)

	all, err := env.svc.Catalog.ListTitles(ctx, models.TitleFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = env.svc.Catalog.ListTitles(ctx, models.TitleFilter{Sign: "sideways"})
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)

	// A retired name can be reused.
	env.title(t, "Journal Paper", 12)
}
