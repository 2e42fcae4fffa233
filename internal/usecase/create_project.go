package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
)

// CreateProjectInput contains the parameters for creating a project.
type CreateProjectInput struct {
	Actor  domain.Actor // Acting admin
	Number string       // Human-readable project number, unique per tenant (required)
	Name   string       // Project name
}

// CreateProjectOutput contains the created project.
type CreateProjectOutput struct {
	Project *domain.Project
}

// CreateProject registers a project in the admin's tenant.
type CreateProject struct {
	projects domain.ProjectRepository
	clock    domain.Clock
	logger   domain.Logger
}

// NewCreateProject creates a new CreateProject use case.
func NewCreateProject(projects domain.ProjectRepository, clock domain.Clock, logger domain.Logger) *CreateProject {
	return &CreateProject{
		projects: projects,
		clock:    clock,
		logger:   loggerOrNop(logger),
	}
}

// Execute creates the project. The number is immutable afterwards.
func (uc *CreateProject) Execute(ctx context.Context, in CreateProjectInput) (*CreateProjectOutput, error) {
	if err := shared.RequireAdmin(in.Actor); err != nil {
		return nil, err
	}
	number := strings.TrimSpace(in.Number)
	if number == "" {
		return nil, domain.ErrEmptyProjectNumber
	}

	project := &domain.Project{
		ID:        shared.NewID(),
		TenantID:  in.Actor.TenantID,
		Number:    number,
		Name:      strings.TrimSpace(in.Name),
		CreatedBy: in.Actor.UserID,
		CreatedAt: uc.clock.Now(),
	}
	if err := uc.projects.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}

	uc.logger.Info("", "project", fmt.Sprintf("created project %s in tenant %s", number, in.Actor.TenantID))
	return &CreateProjectOutput{Project: project}, nil
}

// ListProjectsInput contains the parameters for listing projects.
type ListProjectsInput struct {
	Actor domain.Actor
}

// ListProjectsOutput contains the tenant's projects.
type ListProjectsOutput struct {
	Projects []*domain.Project
}

// ListProjects lists the projects of the actor's tenant.
type ListProjects struct {
	projects domain.ProjectRepository
}

// NewListProjects creates a new ListProjects use case.
func NewListProjects(projects domain.ProjectRepository) *ListProjects {
	return &ListProjects{projects: projects}
}

// Execute lists projects ordered by number.
func (uc *ListProjects) Execute(ctx context.Context, in ListProjectsInput) (*ListProjectsOutput, error) {
	projects, err := uc.projects.List(ctx, in.Actor.TenantID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return &ListProjectsOutput{Projects: projects}, nil
}
