package jsonstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(filepath.Join(t.TempDir(), "store.json"))
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	return store
}

func newTask(id string, tenant domain.TenantID, createdAt time.Time) *domain.Task {
	tech := "tech-1"
	return &domain.Task{
		ID:                   id,
		TenantID:             tenant,
		ProjectID:            "proj-1",
		Kind:                 domain.KindProctor,
		Status:               domain.StatusAssigned,
		Title:                "Task " + id,
		AssignedTechnicianID: &tech,
		CreatedBy:            "admin-1",
		CreatedAt:            createdAt,
		UpdatedAt:            createdAt,
	}
}

func TestStore_Initialize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "store.json")
	store := New(path)

	if store.IsInitialized() {
		t.Fatal("IsInitialized() = true before Initialize")
	}
	if err := store.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("store file not created: %v", err)
	}
	if !store.IsInitialized() {
		t.Error("IsInitialized() = false after Initialize")
	}

	// Existing data survives a second Initialize.
	ctx := context.Background()
	if err := store.Tasks().Create(ctx, newTask("t1", tenantX, fixedTime)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := store.Initialize(ctx); err != nil {
		t.Fatalf("Initialize() second call error = %v", err)
	}
	got, err := store.Tasks().Get(ctx, "t1")
	if err != nil || got == nil {
		t.Fatalf("Get() = %v, %v; want task", got, err)
	}
}

func TestStore_NotInitialized(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "store.json"))

	_, err := store.Tasks().Get(context.Background(), "t1")
	if !errors.Is(err, domain.ErrNotInitialized) {
		t.Errorf("Get() error = %v, want ErrNotInitialized", err)
	}
}

func TestTaskRepo_CreateGetUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Tasks()

	task := newTask("t1", tenantX, fixedTime)
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if task.Version != 1 {
		t.Errorf("Version after Create = %d, want 1", task.Version)
	}
	if err := repo.Create(ctx, newTask("t1", tenantX, fixedTime)); err == nil {
		t.Error("Create() duplicate ID: expected error")
	}

	got, err := repo.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "Task t1" || got.TenantID != tenantX || got.Version != 1 {
		t.Errorf("Get() = %+v", got)
	}

	got.Status = domain.StatusInProgressTech
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Version != 2 {
		t.Errorf("Version after Update = %d, want 2", got.Version)
	}

	// task still carries version 1
	task.Title = "stale"
	if err := repo.Update(ctx, task); !errors.Is(err, domain.ErrVersionMismatch) {
		t.Errorf("Update() stale error = %v, want ErrVersionMismatch", err)
	}

	reread, _ := repo.Get(ctx, "t1")
	if reread.Status != domain.StatusInProgressTech || reread.Title != "Task t1" {
		t.Errorf("stored task = %+v", reread)
	}
}

func TestTaskRepo_GetNotFound(t *testing.T) {
	repo := newTestStore(t).Tasks()

	got, err := repo.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != nil {
		t.Errorf("Get() = %+v, want nil", got)
	}
}

func TestTaskRepo_UpdateNotFound(t *testing.T) {
	repo := newTestStore(t).Tasks()

	err := repo.Update(context.Background(), newTask("missing", tenantX, fixedTime))
	if !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("Update() error = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskRepo_ListFilters(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Tasks()

	t1 := newTask("t1", tenantX, fixedTime.Add(2*time.Hour))
	t2 := newTask("t2", tenantX, fixedTime)
	t2.Status = domain.StatusReadyForReview
	t3 := newTask("t3", tenantX, fixedTime.Add(time.Hour))
	other := "tech-2"
	t3.AssignedTechnicianID = &other
	t3.ProjectID = "proj-2"
	t4 := newTask("t4", "tenant-y", fixedTime)
	t5 := newTask("t5", domain.LegacyTenant, fixedTime)
	for _, task := range []*domain.Task{t1, t2, t3, t4, t5} {
		if err := repo.Create(ctx, task); err != nil {
			t.Fatalf("Create(%s) error = %v", task.ID, err)
		}
	}

	tech1 := "tech-1"
	tests := []struct {
		name   string
		filter domain.TaskFilter
		want   []string
	}{
		{"tenant only, ordered by creation", domain.TaskFilter{TenantID: tenantX}, []string{"t2", "t3", "t1"}},
		{"legacy tenant", domain.TaskFilter{TenantID: domain.LegacyTenant}, []string{"t5"}},
		{"assignee", domain.TaskFilter{TenantID: tenantX, AssignedTo: &tech1}, []string{"t2", "t1"}},
		{"project", domain.TaskFilter{TenantID: tenantX, ProjectID: "proj-2"}, []string{"t3"}},
		{"status", domain.TaskFilter{TenantID: tenantX, Statuses: []domain.Status{domain.StatusReadyForReview}}, []string{"t2"}},
		{"unknown tenant", domain.TaskFilter{TenantID: "tenant-z"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			var ids []string
			for _, task := range got {
				ids = append(ids, task.ID)
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("List() = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Errorf("List()[%d] = %s, want %s", i, ids[i], tt.want[i])
				}
			}
		})
	}
}

func TestStore_InTxCommits(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		task := newTask("t1", tenantX, fixedTime)
		if err := tx.Tasks.Create(ctx, task); err != nil {
			return err
		}
		// Reads inside the transaction see its own writes.
		got, err := tx.Tasks.Get(ctx, "t1")
		if err != nil || got == nil {
			t.Errorf("tx Get() = %v, %v", got, err)
		}
		return tx.History.Append(ctx, &domain.HistoryEntry{
			ID: "h1", TaskID: "t1", TenantID: tenantX, Action: domain.HistoryStatusChanged,
			Note: domain.NoteTaskCreated, CreatedAt: fixedTime,
		})
	})
	if err != nil {
		t.Fatalf("InTx() error = %v", err)
	}

	got, _ := store.Tasks().Get(ctx, "t1")
	if got == nil {
		t.Fatal("task not committed")
	}
	entries, _ := store.History().ListByTask(ctx, "t1")
	if len(entries) != 1 || entries[0].Note != domain.NoteTaskCreated {
		t.Errorf("history = %+v", entries)
	}
}

func TestStore_InTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Tasks().Create(ctx, newTask("t1", tenantX, fixedTime)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	boom := errors.New("history write failed")
	err := store.InTx(ctx, func(ctx context.Context, tx domain.TxRepositories) error {
		task, _ := tx.Tasks.Get(ctx, "t1")
		task.Status = domain.StatusReadyForReview
		if err := tx.Tasks.Update(ctx, task); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx() error = %v, want %v", err, boom)
	}

	got, _ := store.Tasks().Get(ctx, "t1")
	if got.Status != domain.StatusAssigned || got.Version != 1 {
		t.Errorf("task after rollback = status %s version %d, want ASSIGNED 1", got.Status, got.Version)
	}
}

func TestHistoryRepo_ListByTaskNewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).History()

	entries := []*domain.HistoryEntry{
		{ID: "h1", TaskID: "t1", CreatedAt: fixedTime, Action: domain.HistoryStatusChanged},
		{ID: "h2", TaskID: "t2", CreatedAt: fixedTime.Add(time.Minute), Action: domain.HistorySubmitted},
		{ID: "h3", TaskID: "t1", CreatedAt: fixedTime.Add(2 * time.Minute), Action: domain.HistorySubmitted},
		{ID: "h4", TaskID: "t1", CreatedAt: fixedTime.Add(2 * time.Minute), Action: domain.HistoryApproved},
	}
	for _, e := range entries {
		if err := repo.Append(ctx, e); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := repo.ListByTask(ctx, "t1")
	if err != nil {
		t.Fatalf("ListByTask() error = %v", err)
	}
	want := []string{"h4", "h3", "h1"}
	if len(got) != len(want) {
		t.Fatalf("ListByTask() returned %d entries, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.ID != want[i] {
			t.Errorf("ListByTask()[%d] = %s, want %s", i, e.ID, want[i])
		}
	}
}

func TestProjectRepo_DuplicateNumberPerTenant(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Projects()

	if err := repo.Create(ctx, &domain.Project{ID: "p1", TenantID: tenantX, Number: "P-2"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, &domain.Project{ID: "p2", TenantID: tenantX, Number: "P-1"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	err := repo.Create(ctx, &domain.Project{ID: "p3", TenantID: tenantX, Number: "P-2"})
	if !errors.Is(err, domain.ErrDuplicateProjectNumber) {
		t.Errorf("Create() duplicate error = %v, want ErrDuplicateProjectNumber", err)
	}
	// Same number in another tenant is fine.
	if err := repo.Create(ctx, &domain.Project{ID: "p4", TenantID: "tenant-y", Number: "P-2"}); err != nil {
		t.Errorf("Create() other tenant error = %v", err)
	}

	projects, err := repo.List(ctx, tenantX)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 2 || projects[0].Number != "P-1" || projects[1].Number != "P-2" {
		t.Errorf("List() = %+v", projects)
	}
}

func TestUserRepo_ListByRole(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Users()

	users := []*domain.User{
		{ID: "u3", TenantID: tenantX, Role: domain.RoleAdmin},
		{ID: "u1", TenantID: tenantX, Role: domain.RoleAdmin},
		{ID: "u2", TenantID: tenantX, Role: domain.RoleTechnician},
		{ID: "u4", TenantID: "tenant-y", Role: domain.RoleAdmin},
	}
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	admins, err := repo.ListByRole(ctx, tenantX, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("ListByRole() error = %v", err)
	}
	if len(admins) != 2 || admins[0].ID != "u1" || admins[1].ID != "u3" {
		t.Errorf("ListByRole() = %+v", admins)
	}
}

func TestNotificationRepo(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).Notifications()

	for _, n := range []*domain.Notification{
		{ID: "n1", RecipientID: "admin-1", Message: "first", CreatedAt: fixedTime},
		{ID: "n2", RecipientID: "admin-2", Message: "other", CreatedAt: fixedTime},
		{ID: "n3", RecipientID: "admin-1", Message: "second", CreatedAt: fixedTime.Add(time.Minute)},
	} {
		if err := repo.Create(ctx, n); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := repo.MarkRead(ctx, "n1"); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := repo.MarkRead(ctx, "missing"); !errors.Is(err, domain.ErrNotificationNotFound) {
		t.Errorf("MarkRead() missing error = %v", err)
	}

	all, _ := repo.ListForRecipient(ctx, "admin-1", false)
	if len(all) != 2 || all[0].ID != "n3" || all[1].ID != "n1" || !all[1].IsRead {
		t.Errorf("ListForRecipient(all) = %+v", all)
	}
	unread, _ := repo.ListForRecipient(ctx, "admin-1", true)
	if len(unread) != 1 || unread[0].ID != "n3" {
		t.Errorf("ListForRecipient(unread) = %+v", unread)
	}
	got, _ := repo.Get(ctx, "n2")
	if got == nil || got.Message != "other" {
		t.Errorf("Get() = %+v", got)
	}
}

func TestWorkPackageRepo_MarkMigrated(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t).WorkPackages()

	if err := repo.Create(ctx, &domain.WorkPackage{ID: "wp1", TenantID: tenantX, Kind: domain.KindRebar}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.MarkMigrated(ctx, "wp1", "t9"); err != nil {
		t.Fatalf("MarkMigrated() error = %v", err)
	}
	if err := repo.MarkMigrated(ctx, "missing", "t9"); !errors.Is(err, domain.ErrWorkPackageNotFound) {
		t.Errorf("MarkMigrated() missing error = %v", err)
	}

	wps, err := repo.List(ctx, tenantX)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(wps) != 1 || wps[0].MigratedTaskID == nil || *wps[0].MigratedTaskID != "t9" {
		t.Errorf("List() = %+v", wps)
	}
	if other, _ := repo.List(ctx, "tenant-y"); len(other) != 0 {
		t.Errorf("List(tenant-y) = %+v, want empty", other)
	}
}

func TestReportRepo_TenantGuard(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewReportRepository[domain.RebarData](store)

	report := &domain.Report[domain.RebarData]{
		ID:       "r1",
		TaskID:   "t1",
		TenantID: tenantX,
		Data: domain.RebarData{
			Elements: []domain.RebarElement{{Location: "grid B/4", BarSize: "#5", Result: "pass"}},
		},
		CreatedAt: fixedTime,
		UpdatedAt: fixedTime,
	}
	if err := repo.Upsert(ctx, report); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	got, err := repo.Get(ctx, "t1", tenantX)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got == nil || len(got.Data.Elements) != 1 || got.Data.Elements[0].BarSize != "#5" {
		t.Fatalf("Get() = %+v", got)
	}

	// Rows of another tenant are invisible.
	if got, _ := repo.Get(ctx, "t1", "tenant-y"); got != nil {
		t.Errorf("Get(tenant-y) = %+v, want nil", got)
	}
	if got, _ := repo.Get(ctx, "t1", domain.LegacyTenant); got != nil {
		t.Errorf("Get(legacy) = %+v, want nil", got)
	}

	hijack := *report
	hijack.TenantID = "tenant-y"
	if err := repo.Upsert(ctx, &hijack); !errors.Is(err, domain.ErrReportTenantMismatch) {
		t.Errorf("Upsert() other tenant error = %v, want ErrReportTenantMismatch", err)
	}

	// Other kinds use separate rows for the same task.
	density := NewReportRepository[domain.DensityData](store)
	if got, _ := density.Get(ctx, "t1", tenantX); got != nil {
		t.Errorf("density Get() = %+v, want nil", got)
	}
}
