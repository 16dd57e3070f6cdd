package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/titto/titto-backend/internal/database"
	"github.com/titto/titto-backend/internal/models"
	"github.com/titto/titto-backend/internal/store"
)

func TestSeedUserTopsUpBalances(t *testing.T) {
	db, err := database.OpenGorm("sqlite", ":memory:")
	require.NoError(t, err)
	g := store.NewGorm(db)
	require.NoError(t, g.Migrate())
	ctx := context.Background()

	u, err := seedUser(ctx, g, " Olga@Uni.edu ", "", "engineering", 100)
	require.NoError(t, err)
	require.Equal(t, "olga@uni.edu", u.Email)
	require.Equal(t, "olga", u.Name)
	require.Equal(t, string(models.DepartmentEngineering), u.Department)

	again, err := seedUser(ctx, g, "olga@uni.edu", "", "", 50)
	require.NoError(t, err)
	require.Equal(t, u.ID, again.ID)
	require.Equal(t, 150, again.CurrentExperience)
	require.Equal(t, 150, again.TotalExperience)

	_, err = seedUser(ctx, g, "p@uni.edu", "", "ASTRONOMY", 1)
	require.ErrorIs(t, err, models.ErrUnknownDepartment)
}
