package service

import (
	"context"
	"testing"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestProjectCreate(t *testing.T) {
	repo := new(MockProjectRepository)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	svc := NewProjectService(repo)
	svc.uuidGen = &seqUUIDGen{}
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	project, err := svc.Create(context.Background(), CreateProjectInput{
		UserID:     "user-1",
		Name:       "Thesis research",
		GroupLabel: "school",
	})
	require.NoError(t, err)

	assert.Equal(t, "id-1", project.ID)
	assert.Equal(t, "user-1", project.UserID)
	assert.Equal(t, "school", project.GroupLabel)
	assert.Equal(t, project.CreatedAt, project.UpdatedAt)
	repo.AssertExpectations(t)
}

func TestProjectCreate_RequiresName(t *testing.T) {
	svc := NewProjectService(new(MockProjectRepository))

	_, err := svc.Create(context.Background(), CreateProjectInput{UserID: "user-1"})
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestProjectGet_ForeignProjectHidden(t *testing.T) {
	repo := new(MockProjectRepository)
	repo.On("GetByID", mock.Anything, "proj-1").Return(&domain.Project{ID: "proj-1", UserID: "someone-else"}, nil)

	svc := NewProjectService(repo)

	_, err := svc.Get(context.Background(), "user-1", "proj-1")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
}

func TestProjectUpdate_PartialFields(t *testing.T) {
	repo := new(MockProjectRepository)
	repo.On("GetByID", mock.Anything, "proj-1").Return(&domain.Project{
		ID: "proj-1", UserID: "user-1", Name: "Old name", GroupLabel: "old",
	}, nil)

	var updated *domain.Project
	repo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		updated = args.Get(1).(*domain.Project)
	}).Return(nil)

	svc := NewProjectService(repo)

	_, err := svc.Update(context.Background(), UpdateProjectInput{
		UserID:    "user-1",
		ProjectID: "proj-1",
		Name:      "New name",
	})
	require.NoError(t, err)

	assert.Equal(t, "New name", updated.Name)
	// Unset fields keep their stored value.
	assert.Equal(t, "old", updated.GroupLabel)
}

func TestProjectDelete_ChecksOwnership(t *testing.T) {
	repo := new(MockProjectRepository)
	repo.On("GetByID", mock.Anything, "proj-1").Return(&domain.Project{ID: "proj-1", UserID: "someone-else"}, nil)

	svc := NewProjectService(repo)

	err := svc.Delete(context.Background(), "user-1", "proj-1")
	assert.ErrorIs(t, err, domain.ErrProjectNotFound)
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
