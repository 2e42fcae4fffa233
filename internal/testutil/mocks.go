// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// Advance moves the clock forward.
func (m *MockClock) Advance(d time.Duration) {
	m.NowTime = m.NowTime.Add(d)
}

// MockTaskRepository is a test double for domain.TaskRepository.
// Fields are ordered to minimize memory padding.
type MockTaskRepository struct {
	Tasks     map[string]*domain.Task
	GetErr    error
	ListErr   error
	CreateErr error
	UpdateErr error
}

// Ensure MockTaskRepository implements domain.TaskRepository interface.
var _ domain.TaskRepository = (*MockTaskRepository)(nil)

// NewMockTaskRepository creates a new MockTaskRepository with initialized maps.
func NewMockTaskRepository() *MockTaskRepository {
	return &MockTaskRepository{
		Tasks: make(map[string]*domain.Task),
	}
}

// Get retrieves a copy of a task by ID.
func (m *MockTaskRepository) Get(_ context.Context, id string) (*domain.Task, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	task, ok := m.Tasks[id]
	if !ok {
		return nil, nil
	}
	return task.Clone(), nil
}

// List returns tasks matching the filter, ordered by creation time.
func (m *MockTaskRepository) List(_ context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	tasks := make([]*domain.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		if t.TenantID != filter.TenantID {
			continue
		}
		if filter.AssignedTo != nil && !t.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		if filter.ProjectID != "" && t.ProjectID != filter.ProjectID {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, t.Status) {
			continue
		}
		tasks = append(tasks, t.Clone())
	}
	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// Create stores a new task with version 1.
func (m *MockTaskRepository) Create(_ context.Context, task *domain.Task) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.Tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}
	task.Version = 1
	m.Tasks[task.ID] = task.Clone()
	return nil
}

// Update stores the task if the version matches.
func (m *MockTaskRepository) Update(_ context.Context, task *domain.Task) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	current, ok := m.Tasks[task.ID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	if current.Version != task.Version {
		return domain.ErrVersionMismatch
	}
	task.Version++
	m.Tasks[task.ID] = task.Clone()
	return nil
}

// MockHistoryRepository is a test double for domain.HistoryRepository.
type MockHistoryRepository struct {
	AppendErr error
	Entries   []domain.HistoryEntry
}

// Ensure MockHistoryRepository implements domain.HistoryRepository interface.
var _ domain.HistoryRepository = (*MockHistoryRepository)(nil)

// NewMockHistoryRepository creates a new MockHistoryRepository.
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{}
}

// Append stores an entry.
func (m *MockHistoryRepository) Append(_ context.Context, entry *domain.HistoryEntry) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Entries = append(m.Entries, *entry)
	return nil
}

// ListByTask returns a task's entries, newest first.
func (m *MockHistoryRepository) ListByTask(_ context.Context, taskID string) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for _, e := range m.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.HistoryEntry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
	return out, nil
}

// ForTask returns the task's entries in insertion order.
func (m *MockHistoryRepository) ForTask(taskID string) []domain.HistoryEntry {
	var out []domain.HistoryEntry
	for _, e := range m.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// MockTransactor is a test double for domain.Transactor over the mock repositories.
// Writes made inside a failed transaction are rolled back.
type MockTransactor struct {
	Tasks        *MockTaskRepository
	History      *MockHistoryRepository
	WorkPackages *MockWorkPackageRepository
	Users        *MockUserRepository
	InTxErr      error
	Calls        int
}

// Ensure MockTransactor implements domain.Transactor interface.
var _ domain.Transactor = (*MockTransactor)(nil)

// InTx runs fn and restores the previous state if it fails.
func (m *MockTransactor) InTx(ctx context.Context, fn func(ctx context.Context, tx domain.TxRepositories) error) error {
	m.Calls++
	if m.InTxErr != nil {
		return m.InTxErr
	}
	savedTasks := make(map[string]*domain.Task, len(m.Tasks.Tasks))
	for id, t := range m.Tasks.Tasks {
		savedTasks[id] = t.Clone()
	}
	savedEntries := slices.Clone(m.History.Entries)
	var savedWPs map[string]*domain.WorkPackage
	if m.WorkPackages != nil {
		savedWPs = make(map[string]*domain.WorkPackage, len(m.WorkPackages.WorkPackages))
		for id, wp := range m.WorkPackages.WorkPackages {
			c := *wp
			savedWPs[id] = &c
		}
	}

	err := fn(ctx, domain.TxRepositories{
		Tasks:        m.Tasks,
		History:      m.History,
		WorkPackages: m.WorkPackages,
		Users:        m.Users,
	})
	if err != nil {
		m.Tasks.Tasks = savedTasks
		m.History.Entries = savedEntries
		if m.WorkPackages != nil {
			m.WorkPackages.WorkPackages = savedWPs
		}
	}
	return err
}

// MockProjectRepository is a test double for domain.ProjectRepository.
type MockProjectRepository struct {
	Projects map[string]*domain.Project
	GetErr   error
}

// Ensure MockProjectRepository implements domain.ProjectRepository interface.
var _ domain.ProjectRepository = (*MockProjectRepository)(nil)

// NewMockProjectRepository creates a new MockProjectRepository.
func NewMockProjectRepository() *MockProjectRepository {
	return &MockProjectRepository{Projects: make(map[string]*domain.Project)}
}

// Get retrieves a project by ID.
func (m *MockProjectRepository) Get(_ context.Context, id string) (*domain.Project, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.Projects[id]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

// List returns the tenant's projects ordered by number.
func (m *MockProjectRepository) List(_ context.Context, tenant domain.TenantID) ([]*domain.Project, error) {
	var out []*domain.Project
	for _, p := range m.Projects {
		if p.TenantID == tenant {
			c := *p
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.Project) int { return strings.Compare(a.Number, b.Number) })
	return out, nil
}

// Create stores a project, rejecting duplicate numbers within a tenant.
func (m *MockProjectRepository) Create(_ context.Context, project *domain.Project) error {
	for _, p := range m.Projects {
		if p.TenantID == project.TenantID && p.Number == project.Number {
			return domain.ErrDuplicateProjectNumber
		}
	}
	c := *project
	m.Projects[project.ID] = &c
	return nil
}

// MockUserRepository is a test double for domain.UserRepository.
type MockUserRepository struct {
	Users   map[string]*domain.User
	ListErr error
}

// Ensure MockUserRepository implements domain.UserRepository interface.
var _ domain.UserRepository = (*MockUserRepository)(nil)

// NewMockUserRepository creates a new MockUserRepository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*domain.User)}
}

// Get retrieves a user by ID.
func (m *MockUserRepository) Get(_ context.Context, id string) (*domain.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

// ListByRole returns users of a role within a tenant, ordered by ID.
func (m *MockUserRepository) ListByRole(_ context.Context, tenant domain.TenantID, role domain.Role) ([]*domain.User, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.User
	for _, u := range m.Users {
		if u.TenantID == tenant && u.Role == role {
			c := *u
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.User) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Create stores a user.
func (m *MockUserRepository) Create(_ context.Context, user *domain.User) error {
	c := *user
	m.Users[user.ID] = &c
	return nil
}

// MockNotificationRepository is a test double for domain.NotificationRepository.
// It is safe for concurrent use so async dispatch can be tested.
type MockNotificationRepository struct {
	CreateErr     error
	FailRecipient map[string]bool
	Notifications []*domain.Notification
	mu            sync.Mutex
}

// Ensure MockNotificationRepository implements domain.NotificationRepository interface.
var _ domain.NotificationRepository = (*MockNotificationRepository)(nil)

// NewMockNotificationRepository creates a new MockNotificationRepository.
func NewMockNotificationRepository() *MockNotificationRepository {
	return &MockNotificationRepository{FailRecipient: make(map[string]bool)}
}

// Create stores a notification unless configured to fail.
func (m *MockNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if m.FailRecipient[n.RecipientID] {
		return fmt.Errorf("inbox unavailable for %s", n.RecipientID)
	}
	c := *n
	m.Notifications = append(m.Notifications, &c)
	return nil
}

// Get retrieves a notification by ID.
func (m *MockNotificationRepository) Get(_ context.Context, id string) (*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.Notifications {
		if n.ID == id {
			c := *n
			return &c, nil
		}
	}
	return nil, nil
}

// ListForRecipient returns a user's notifications, newest first.
func (m *MockNotificationRepository) ListForRecipient(_ context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		n := m.Notifications[i]
		if n.RecipientID != recipientID || (unreadOnly && n.IsRead) {
			continue
		}
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

// MarkRead flags a notification as read.
func (m *MockNotificationRepository) MarkRead(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.Notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

// For returns the notifications delivered to a recipient.
func (m *MockNotificationRepository) For(recipientID string) []*domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Notification
	for _, n := range m.Notifications {
		if n.RecipientID == recipientID {
			out = append(out, n)
		}
	}
	return out
}

// Count returns the number of stored notifications.
func (m *MockNotificationRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Notifications)
}

// MockWorkPackageRepository is a test double for domain.WorkPackageRepository.
type MockWorkPackageRepository struct {
	WorkPackages map[string]*domain.WorkPackage
}

// Ensure MockWorkPackageRepository implements domain.WorkPackageRepository interface.
var _ domain.WorkPackageRepository = (*MockWorkPackageRepository)(nil)

// NewMockWorkPackageRepository creates a new MockWorkPackageRepository.
func NewMockWorkPackageRepository() *MockWorkPackageRepository {
	return &MockWorkPackageRepository{WorkPackages: make(map[string]*domain.WorkPackage)}
}

// Get retrieves a work package by ID.
func (m *MockWorkPackageRepository) Get(_ context.Context, id string) (*domain.WorkPackage, error) {
	wp, ok := m.WorkPackages[id]
	if !ok {
		return nil, nil
	}
	c := *wp
	return &c, nil
}

// List returns the tenant's work packages ordered by ID.
func (m *MockWorkPackageRepository) List(_ context.Context, tenant domain.TenantID) ([]*domain.WorkPackage, error) {
	var out []*domain.WorkPackage
	for _, wp := range m.WorkPackages {
		if wp.TenantID == tenant {
			c := *wp
			out = append(out, &c)
		}
	}
	slices.SortFunc(out, func(a, b *domain.WorkPackage) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Create stores a work package.
func (m *MockWorkPackageRepository) Create(_ context.Context, wp *domain.WorkPackage) error {
	c := *wp
	m.WorkPackages[wp.ID] = &c
	return nil
}

// MarkMigrated records the replacing task.
func (m *MockWorkPackageRepository) MarkMigrated(_ context.Context, id, taskID string) error {
	wp, ok := m.WorkPackages[id]
	if !ok {
		return domain.ErrWorkPackageNotFound
	}
	wp.MigratedTaskID = &taskID
	return nil
}

// MockReportRepository is a test double for domain.ReportRepository.
// Rows are keyed by task ID, as in the real stores.
type MockReportRepository[P domain.ReportData] struct {
	Rows      map[string]*domain.Report[P]
	UpsertErr error
}

// NewMockReportRepository creates a new MockReportRepository.
func NewMockReportRepository[P domain.ReportData]() *MockReportRepository[P] {
	return &MockReportRepository[P]{Rows: make(map[string]*domain.Report[P])}
}

// Get returns the row for the task only if it carries the given tenant.
func (m *MockReportRepository[P]) Get(_ context.Context, taskID string, tenant domain.TenantID) (*domain.Report[P], error) {
	r, ok := m.Rows[taskID]
	if !ok || r.TenantID != tenant {
		return nil, nil
	}
	c := *r
	return &c, nil
}

// Upsert stores the row, refusing to overwrite a row of another tenant.
func (m *MockReportRepository[P]) Upsert(_ context.Context, report *domain.Report[P]) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	if existing, ok := m.Rows[report.TaskID]; ok && existing.TenantID != report.TenantID {
		return domain.ErrReportTenantMismatch
	}
	c := *report
	m.Rows[report.TaskID] = &c
	return nil
}

// MockLogger records log lines.
type MockLogger struct {
	Lines []string
	mu    sync.Mutex
}

// Ensure MockLogger implements domain.Logger interface.
var _ domain.Logger = (*MockLogger)(nil)

func (m *MockLogger) add(level, taskID, category, msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lines = append(m.Lines, fmt.Sprintf("[%s] [%s] [%s] %s", level, taskID, category, msg))
}

// Debug records a debug line.
func (m *MockLogger) Debug(taskID, category, msg string) { m.add("DEBUG", taskID, category, msg) }

// Info records an info line.
func (m *MockLogger) Info(taskID, category, msg string) { m.add("INFO", taskID, category, msg) }

// Warn records a warning line.
func (m *MockLogger) Warn(taskID, category, msg string) { m.add("WARN", taskID, category, msg) }

// Error records an error line.
func (m *MockLogger) Error(taskID, category, msg string) { m.add("ERROR", taskID, category, msg) }

// Contains reports whether any recorded line contains substr.
func (m *MockLogger) Contains(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.Lines {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// MockConfigManager is a test double for domain.ConfigManager.
type MockConfigManager struct {
	InitDataErr      error
	InitGlobalErr    error
	DataConfigInfo   domain.ConfigInfo
	GlobalConfigInfo domain.ConfigInfo
	InitDataCalled   bool
	InitGlobalCalled bool
}

// Ensure MockConfigManager implements domain.ConfigManager interface.
var _ domain.ConfigManager = (*MockConfigManager)(nil)

// NewMockConfigManager creates a new MockConfigManager.
func NewMockConfigManager() *MockConfigManager {
	return &MockConfigManager{}
}

// GetDataConfigInfo returns the configured data config info.
func (m *MockConfigManager) GetDataConfigInfo() domain.ConfigInfo {
	return m.DataConfigInfo
}

// GetGlobalConfigInfo returns the configured global config info.
func (m *MockConfigManager) GetGlobalConfigInfo() domain.ConfigInfo {
	return m.GlobalConfigInfo
}

// InitDataConfig records the call.
func (m *MockConfigManager) InitDataConfig(_ *domain.Config) error {
	m.InitDataCalled = true
	return m.InitDataErr
}

// InitGlobalConfig records the call.
func (m *MockConfigManager) InitGlobalConfig(_ *domain.Config) error {
	m.InitGlobalCalled = true
	return m.InitGlobalErr
}

// MockStoreInitializer is a test double for domain.StoreInitializer.
type MockStoreInitializer struct {
	InitErr error
	Calls   int
}

// Initialize records the call.
func (m *MockStoreInitializer) Initialize(_ context.Context) error {
	m.Calls++
	return m.InitErr
}
