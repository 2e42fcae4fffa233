package testutil

import (
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Tenants used by fixtures.
const (
	TenantA domain.TenantID = "tenant-a"
	TenantB domain.TenantID = "tenant-b"
)

// Fixture is an in-memory world with two tenants.
// Tenant A has two admins, two technicians and one project.
// Tenant B has one admin, one technician and one project.
type Fixture struct {
	Clock         *MockClock
	Tasks         *MockTaskRepository
	History       *MockHistoryRepository
	Projects      *MockProjectRepository
	Users         *MockUserRepository
	Notifications *MockNotificationRepository
	WorkPackages  *MockWorkPackageRepository
	Tx            *MockTransactor
	Logger        *MockLogger

	Admin    *domain.User
	Admin2   *domain.User
	Tech     *domain.User
	Tech2    *domain.User
	AdminB   *domain.User
	TechB    *domain.User
	Project  *domain.Project
	ProjectB *domain.Project
}

// NewFixture builds the fixture world. The clock reads 2025-03-12 15:00 UTC.
func NewFixture() *Fixture {
	tasks := NewMockTaskRepository()
	history := NewMockHistoryRepository()
	wps := NewMockWorkPackageRepository()
	users := NewMockUserRepository()
	f := &Fixture{
		Clock:         &MockClock{NowTime: time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)},
		Tasks:         tasks,
		History:       history,
		Projects:      NewMockProjectRepository(),
		Users:         users,
		Notifications: NewMockNotificationRepository(),
		WorkPackages:  wps,
		Tx:            &MockTransactor{Tasks: tasks, History: history, WorkPackages: wps, Users: users},
		Logger:        &MockLogger{},
	}

	f.Admin = f.addUser("admin-1", TenantA, "ada@a.example", "Ada Admin", domain.RoleAdmin)
	f.Admin2 = f.addUser("admin-2", TenantA, "alan@a.example", "", domain.RoleAdmin)
	f.Tech = f.addUser("tech-1", TenantA, "tom@a.example", "Tom Tech", domain.RoleTechnician)
	f.Tech2 = f.addUser("tech-2", TenantA, "tess@a.example", "", domain.RoleTechnician)
	f.AdminB = f.addUser("admin-b", TenantB, "bea@b.example", "Bea Admin", domain.RoleAdmin)
	f.TechB = f.addUser("tech-b", TenantB, "ben@b.example", "Ben Tech", domain.RoleTechnician)

	f.Project = f.addProject("proj-a", TenantA, "P-1001")
	f.ProjectB = f.addProject("proj-b", TenantB, "P-2001")
	return f
}

func (f *Fixture) addUser(id string, tenant domain.TenantID, email, name string, role domain.Role) *domain.User {
	u := &domain.User{ID: id, TenantID: tenant, Email: email, DisplayName: name, Role: role}
	f.Users.Users[id] = u
	return u
}

func (f *Fixture) addProject(id string, tenant domain.TenantID, number string) *domain.Project {
	p := &domain.Project{ID: id, TenantID: tenant, Number: number, Name: "Project " + number, CreatedAt: f.Clock.Now()}
	f.Projects.Projects[id] = p
	return p
}

// SeedTask stores a task in tenant A's project assigned to the fixture technician.
// Options can adjust it before it is stored.
func (f *Fixture) SeedTask(id string, kind domain.TaskKind, status domain.Status, opts ...func(*domain.Task)) *domain.Task {
	techID := f.Tech.ID
	task := &domain.Task{
		ID:                   id,
		TenantID:             TenantA,
		ProjectID:            f.Project.ID,
		Kind:                 kind,
		Status:               status,
		Title:                "Task " + id,
		AssignedTechnicianID: &techID,
		CreatedBy:            f.Admin.ID,
		CreatedAt:            f.Clock.Now(),
		UpdatedAt:            f.Clock.Now(),
		Version:              1,
	}
	for _, opt := range opts {
		opt(task)
	}
	f.Tasks.Tasks[id] = task.Clone()
	return task
}

// WithTenant moves a seeded task to another tenant and project.
func WithTenant(tenant domain.TenantID, projectID string) func(*domain.Task) {
	return func(t *domain.Task) {
		t.TenantID = tenant
		t.ProjectID = projectID
	}
}

// WithAssignee sets the seeded task's technician; empty leaves it unassigned.
func WithAssignee(userID string) func(*domain.Task) {
	return func(t *domain.Task) {
		if userID == "" {
			t.AssignedTechnicianID = nil
			return
		}
		t.AssignedTechnicianID = &userID
	}
}

// WithDue sets the seeded task's report due date.
func WithDue(date string) func(*domain.Task) {
	return func(t *domain.Task) {
		t.ReportDueDate = domain.DatePtr(domain.MustParseDate(date))
	}
}

// WithFieldDate sets a single field date.
func WithFieldDate(date string) func(*domain.Task) {
	return func(t *domain.Task) {
		t.Field = domain.FieldSchedule{Date: domain.DatePtr(domain.MustParseDate(date))}
	}
}

// WithFieldRange sets an inclusive field date range.
func WithFieldRange(start, end string) func(*domain.Task) {
	return func(t *domain.Task) {
		t.Field = domain.FieldSchedule{
			Start: domain.DatePtr(domain.MustParseDate(start)),
			End:   domain.DatePtr(domain.MustParseDate(end)),
		}
	}
}

// Stored returns the persisted copy of a task.
func (f *Fixture) Stored(id string) *domain.Task {
	return f.Tasks.Tasks[id].Clone()
}
