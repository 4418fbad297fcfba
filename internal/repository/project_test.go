//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/atlas-learn/atlasai/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProject(userID string) *domain.Project {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Project{
		ID:         uuid.NewString(),
		UserID:     userID,
		Name:       "Test Project",
		GroupLabel: "research",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestProjectRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewProjectRepository(pool)

	project := newTestProject("user-1")
	require.NoError(t, repo.Create(ctx, project))

	retrieved, err := repo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Test Project", retrieved.Name)
	assert.Equal(t, "research", retrieved.GroupLabel)

	retrieved.Name = "Renamed"
	retrieved.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, repo.Update(ctx, retrieved))

	updated, err := repo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, repo.Delete(ctx, project.ID))
	_, err = repo.GetByID(ctx, project.ID)
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestProjectRepository_EmptyGroupLabelRoundTrips(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewProjectRepository(pool)

	project := newTestProject("user-1")
	project.GroupLabel = ""
	require.NoError(t, repo.Create(ctx, project))

	retrieved, err := repo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, retrieved.GroupLabel)
}

func TestProjectRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewProjectRepository(pool)

	require.NoError(t, repo.Create(ctx, newTestProject("user-1")))
	require.NoError(t, repo.Create(ctx, newTestProject("user-1")))
	require.NoError(t, repo.Create(ctx, newTestProject("user-2")))

	projects, err := repo.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, projects, 2)
}

func TestProjectRepository_UpdateMissing(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewProjectRepository(pool)

	err := repo.Update(ctx, newTestProject("user-1"))
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}
