package service

import (
	"context"
	"time"

	"github.com/atlas-learn/atlasai/internal/domain"
)

// ProjectRepositoryInterface defines the repository interface for project persistence.
type ProjectRepositoryInterface interface {
	Create(ctx context.Context, project *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Project, error)
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
}

// ProjectService handles project CRUD. Projects carry no dedup or
// generation logic; they only group documents on the dashboard.
type ProjectService struct {
	repo    ProjectRepositoryInterface
	uuidGen UUIDGenerator
	now     func() time.Time
}

// NewProjectService creates a new ProjectService instance.
func NewProjectService(repo ProjectRepositoryInterface) *ProjectService {
	return &ProjectService{
		repo:    repo,
		uuidGen: &DefaultUUIDGenerator{},
		now:     time.Now,
	}
}

type CreateProjectInput struct {
	UserID     string
	Name       string
	GroupLabel string
}

func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*domain.Project, error) {
	if input.Name == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "project name is required")
	}

	now := s.now().UTC()
	project := &domain.Project{
		ID:         s.uuidGen.NewString(),
		UserID:     input.UserID,
		Name:       input.Name,
		GroupLabel: input.GroupLabel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := domain.ValidateProject(project); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid project", err)
	}

	if err := s.repo.Create(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, userID, id string) (*domain.Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if project.UserID != userID {
		return nil, domain.ErrProjectNotFound
	}
	return project, nil
}

func (s *ProjectService) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	return s.repo.ListByUser(ctx, userID)
}

type UpdateProjectInput struct {
	UserID     string
	ProjectID  string
	Name       string
	GroupLabel string
}

func (s *ProjectService) Update(ctx context.Context, input UpdateProjectInput) (*domain.Project, error) {
	project, err := s.Get(ctx, input.UserID, input.ProjectID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		project.Name = input.Name
	}
	if input.GroupLabel != "" {
		project.GroupLabel = input.GroupLabel
	}
	project.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
