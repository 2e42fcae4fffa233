package domain

import "time"

// ReportKind names one of the per-kind report tables.
type ReportKind string

// Report kinds.
const (
	ReportCompressiveStrength ReportKind = "compressive_strength"
	ReportDensity             ReportKind = "density"
	ReportProctor             ReportKind = "proctor"
	ReportRebar               ReportKind = "rebar"
)

// AllReportKinds returns all report kinds.
func AllReportKinds() []ReportKind {
	return []ReportKind{ReportCompressiveStrength, ReportDensity, ReportProctor, ReportRebar}
}

// TaskKind returns the task kind a report of this kind belongs to.
func (k ReportKind) TaskKind() TaskKind {
	switch k {
	case ReportCompressiveStrength:
		return KindCompressiveStrength
	case ReportDensity:
		return KindDensityMeasurement
	case ReportProctor:
		return KindProctor
	case ReportRebar:
		return KindRebar
	default:
		return ""
	}
}

// IsValid returns true if the report kind is known.
func (k ReportKind) IsValid() bool {
	return k.TaskKind() != ""
}

// ReportKindFor returns the report kind for a task kind.
// Cylinder pickups carry no report.
func ReportKindFor(kind TaskKind) (ReportKind, bool) {
	for _, rk := range AllReportKinds() {
		if rk.TaskKind() == kind {
			return rk, true
		}
	}
	return "", false
}

// ReportData is implemented by every per-kind report payload.
type ReportData interface {
	ReportKind() ReportKind
}

// Report is the single report row for a task.
// TenantID is always copied from the parent task by the report service.
type Report[P ReportData] struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Data      P         `json:"data"`
	ID        string    `json:"id"`
	TaskID    string    `json:"taskId"`
	TenantID  TenantID  `json:"tenantId"`
	UpdatedBy string    `json:"updatedBy"`
}

// CompressiveStrengthData is the concrete cylinder break report.
type CompressiveStrengthData struct {
	CastDate             *Date      `json:"castDate,omitempty" yaml:"castDate,omitempty"`
	MixDesign            string     `json:"mixDesign" yaml:"mixDesign"`
	Remarks              string     `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Cylinders            []Cylinder `json:"cylinders" yaml:"cylinders"`
	SpecifiedStrengthPSI float64    `json:"specifiedStrengthPsi" yaml:"specifiedStrengthPsi"`
	SlumpIn              float64    `json:"slumpIn" yaml:"slumpIn"`
	AirContentPct        float64    `json:"airContentPct" yaml:"airContentPct"`
	ConcreteTempF        float64    `json:"concreteTempF" yaml:"concreteTempF"`
}

// Cylinder is one compression test specimen.
type Cylinder struct {
	TestDate     *Date   `json:"testDate,omitempty" yaml:"testDate,omitempty"`
	ID           string  `json:"id" yaml:"id"`
	FractureType string  `json:"fractureType,omitempty" yaml:"fractureType,omitempty"`
	AgeDays      int     `json:"ageDays" yaml:"ageDays"`
	DiameterIn   float64 `json:"diameterIn" yaml:"diameterIn"`
	MaxLoadLbs   float64 `json:"maxLoadLbs" yaml:"maxLoadLbs"`
	StrengthPSI  float64 `json:"strengthPsi" yaml:"strengthPsi"`
}

// ReportKind implements ReportData.
func (CompressiveStrengthData) ReportKind() ReportKind { return ReportCompressiveStrength }

// DensityData is the nuclear gauge field density report.
type DensityData struct {
	GaugeModel            string        `json:"gaugeModel" yaml:"gaugeModel"`
	GaugeSerial           string        `json:"gaugeSerial" yaml:"gaugeSerial"`
	ProctorRef            string        `json:"proctorRef,omitempty" yaml:"proctorRef,omitempty"`
	Remarks               string        `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Tests                 []DensityTest `json:"tests" yaml:"tests"`
	StandardDensityCount  int           `json:"standardDensityCount" yaml:"standardDensityCount"`
	StandardMoistureCount int           `json:"standardMoistureCount" yaml:"standardMoistureCount"`
	MaxDryDensityPCF      float64       `json:"maxDryDensityPcf" yaml:"maxDryDensityPcf"`
	OptimumMoisturePct    float64       `json:"optimumMoisturePct" yaml:"optimumMoisturePct"`
	SpecCompactionPct     float64       `json:"specCompactionPct" yaml:"specCompactionPct"`
}

// DensityTest is one in-place density reading.
type DensityTest struct {
	Location      string  `json:"location" yaml:"location"`
	TestNo        int     `json:"testNo" yaml:"testNo"`
	ElevationFt   float64 `json:"elevationFt" yaml:"elevationFt"`
	WetDensityPCF float64 `json:"wetDensityPcf" yaml:"wetDensityPcf"`
	MoisturePct   float64 `json:"moisturePct" yaml:"moisturePct"`
	DryDensityPCF float64 `json:"dryDensityPcf" yaml:"dryDensityPcf"`
	CompactionPct float64 `json:"compactionPct" yaml:"compactionPct"`
	Passed        bool    `json:"passed" yaml:"passed"`
}

// ReportKind implements ReportData.
func (DensityData) ReportKind() ReportKind { return ReportDensity }

// ProctorData is the moisture-density relationship report.
type ProctorData struct {
	Method             string         `json:"method" yaml:"method"` // standard or modified
	SoilDescription    string         `json:"soilDescription" yaml:"soilDescription"`
	SampleLocation     string         `json:"sampleLocation" yaml:"sampleLocation"`
	Remarks            string         `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Points             []ProctorPoint `json:"points" yaml:"points"`
	MaxDryDensityPCF   float64        `json:"maxDryDensityPcf" yaml:"maxDryDensityPcf"`
	OptimumMoisturePct float64        `json:"optimumMoisturePct" yaml:"optimumMoisturePct"`
	SpecificGravity    float64        `json:"specificGravity" yaml:"specificGravity"`
}

// ProctorPoint is one compaction curve point.
type ProctorPoint struct {
	MoisturePct   float64 `json:"moisturePct" yaml:"moisturePct"`
	DryDensityPCF float64 `json:"dryDensityPcf" yaml:"dryDensityPcf"`
}

// ReportKind implements ReportData.
func (ProctorData) ReportKind() ReportKind { return ReportProctor }

// RebarData is the reinforcing steel placement inspection report.
type RebarData struct {
	InspectionDate *Date          `json:"inspectionDate,omitempty" yaml:"inspectionDate,omitempty"`
	Remarks        string         `json:"remarks,omitempty" yaml:"remarks,omitempty"`
	Drawings       []string       `json:"drawings,omitempty" yaml:"drawings,omitempty"`
	Elements       []RebarElement `json:"elements" yaml:"elements"`
}

// RebarElement is one inspected structural element.
type RebarElement struct {
	Location string `json:"location" yaml:"location"`
	BarSize  string `json:"barSize" yaml:"barSize"`
	Spacing  string `json:"spacing" yaml:"spacing"`
	Cover    string `json:"cover" yaml:"cover"`
	Result   string `json:"result" yaml:"result"`
}

// ReportKind implements ReportData.
func (RebarData) ReportKind() ReportKind { return ReportRebar }
