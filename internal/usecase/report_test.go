package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/fieldlab/fieldops/internal/domain"
	"github.com/fieldlab/fieldops/internal/testutil"
	"github.com/fieldlab/fieldops/internal/usecase"
	"github.com/fieldlab/fieldops/internal/usecase/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportService[P domain.ReportData](f *testutil.Fixture) (*usecase.ReportService[P], *testutil.MockReportRepository[P]) {
	repo := testutil.NewMockReportRepository[P]()
	resolver := shared.NewTenantResolver(f.Tasks, f.WorkPackages)
	return usecase.NewReportService[P](resolver, repo, f.Clock, f.Logger), repo
}

// checkTenantStamp saves a report for a tenant-A task and a legacy task and
// verifies the stored rows carry the parent task's tenant.
func checkTenantStamp[P domain.ReportData](t *testing.T, data P) {
	t.Helper()
	f := testutil.NewFixture()
	kind := data.ReportKind().TaskKind()
	f.SeedTask("t1", kind, domain.StatusInProgressTech)
	f.SeedTask("legacy", kind, domain.StatusInProgressTech, testutil.WithTenant(domain.LegacyTenant, "old"))
	svc, repo := newReportService[P](f)
	ctx := context.Background()

	saved, err := svc.Save(ctx, "t1", f.Tech.Actor(), data)
	require.NoError(t, err)
	assert.Equal(t, testutil.TenantA, saved.TenantID)
	assert.Equal(t, testutil.TenantA, repo.Rows["t1"].TenantID)

	got, err := svc.Get(ctx, "t1", f.Admin.Actor())
	require.NoError(t, err)
	assert.Equal(t, data, got.Data)

	_, err = svc.Get(ctx, "t1", f.AdminB.Actor())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	legacyAdmin := domain.Actor{UserID: "root", Role: domain.RoleAdmin, TenantID: domain.LegacyTenant}
	saved, err = svc.Save(ctx, "legacy", legacyAdmin, data)
	require.NoError(t, err)
	assert.Equal(t, domain.LegacyTenant, saved.TenantID)
}

func TestReportService_StampsParentTenantForEveryKind(t *testing.T) {
	due := domain.MustParseDate("2025-03-08")
	t.Run("compressive strength", func(t *testing.T) {
		checkTenantStamp(t, domain.CompressiveStrengthData{
			MixDesign: "4000 psi", SlumpIn: 4.5, CastDate: &due,
			Cylinders: []domain.Cylinder{{ID: "A", AgeDays: 7, StrengthPSI: 3100}},
		})
	})
	t.Run("density", func(t *testing.T) {
		checkTenantStamp(t, domain.DensityData{
			GaugeModel: "3440", Tests: []domain.DensityTest{{TestNo: 1, CompactionPct: 96.5, Passed: true}},
		})
	})
	t.Run("proctor", func(t *testing.T) {
		checkTenantStamp(t, domain.ProctorData{
			Method: "standard", Points: []domain.ProctorPoint{{MoisturePct: 11.2, DryDensityPCF: 118.4}},
		})
	})
	t.Run("rebar", func(t *testing.T) {
		checkTenantStamp(t, domain.RebarData{
			Elements: []domain.RebarElement{{Location: "Grid B4", BarSize: "#5", Result: "pass"}},
		})
	})
}

func TestReportService_NeverReadsOtherTenantRow(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindRebar, domain.StatusInProgressTech)
	svc, repo := newReportService[domain.RebarData](f)
	ctx := context.Background()

	// A row left behind with the wrong stamp.
	repo.Rows["t1"] = &domain.Report[domain.RebarData]{ID: "r1", TaskID: "t1", TenantID: testutil.TenantB}

	_, err := svc.Get(ctx, "t1", f.Admin.Actor())
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	_, err = svc.Save(ctx, "t1", f.Admin.Actor(), domain.RebarData{Remarks: "ok"})
	assert.ErrorIs(t, err, domain.ErrReportTenantMismatch)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, testutil.TenantB, repo.Rows["t1"].TenantID)
}

func TestReportService_UpsertKeepsIdentity(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("t1", domain.KindProctor, domain.StatusInProgressTech)
	svc, repo := newReportService[domain.ProctorData](f)
	ctx := context.Background()

	first, err := svc.Save(ctx, "t1", f.Tech.Actor(), domain.ProctorData{Method: "standard"})
	require.NoError(t, err)
	created := f.Clock.Now()

	f.Clock.Advance(time.Hour)
	second, err := svc.Save(ctx, "t1", f.Admin.Actor(), domain.ProctorData{Method: "modified"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, created, second.CreatedAt)
	assert.Equal(t, f.Clock.Now(), second.UpdatedAt)
	assert.Equal(t, f.Admin.ID, second.UpdatedBy)
	assert.Len(t, repo.Rows, 1)
	assert.Equal(t, "modified", repo.Rows["t1"].Data.Method)
}

func TestReportService_Errors(t *testing.T) {
	f := testutil.NewFixture()
	f.SeedTask("rebar", domain.KindRebar, domain.StatusInProgressTech)
	f.SeedTask("pickup", domain.KindCylinderPickup, domain.StatusInProgressTech)
	f.SeedTask("review", domain.KindDensityMeasurement, domain.StatusReadyForReview)
	f.SeedTask("approved", domain.KindDensityMeasurement, domain.StatusApproved)
	density, _ := newReportService[domain.DensityData](f)
	ctx := context.Background()

	_, err := density.Save(ctx, "rebar", f.Admin.Actor(), domain.DensityData{})
	assert.ErrorIs(t, err, domain.ErrReportKindMismatch)

	_, err = density.Save(ctx, "pickup", f.Admin.Actor(), domain.DensityData{})
	assert.ErrorIs(t, err, domain.ErrReportKindMismatch)

	_, err = density.Save(ctx, "review", f.Tech.Actor(), domain.DensityData{})
	assert.ErrorIs(t, err, domain.ErrTaskUnderReview)

	_, err = density.Save(ctx, "review", f.Admin.Actor(), domain.DensityData{Remarks: "typo fix"})
	require.NoError(t, err)

	_, err = density.Save(ctx, "approved", f.Admin.Actor(), domain.DensityData{})
	assert.ErrorIs(t, err, domain.ErrTaskApproved)

	_, err = density.Save(ctx, "review", f.Tech2.Actor(), domain.DensityData{})
	assert.ErrorIs(t, err, domain.ErrNotAssigned)

	_, err = density.Get(ctx, "approved", f.Admin.Actor())
	assert.ErrorIs(t, err, domain.ErrReportNotFound)

	_, err = density.Get(ctx, "missing", f.Admin.Actor())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}
