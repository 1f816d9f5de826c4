package contracts

import (
	"testing"
	"time"
)

func TestStage_ShortName(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageQuality, "S0"},
		{StagePromotion, "S1"},
		{StageLoyalty, "S1"},
		{StageSegmentation, "S2"},
		{StageEvents, "S3"},
		{StageInventory, "SX"},
		{Stage("S9_BOGUS"), "UNKNOWN"},
		{Stage(""), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(string(tt.stage), func(t *testing.T) {
			if got := tt.stage.ShortName(); got != tt.want {
				t.Errorf("ShortName() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestAllStages_Valid(t *testing.T) {
	stages := AllStages()
	if len(stages) != 8 {
		t.Fatalf("expected 8 stages, got %d", len(stages))
	}

	seen := make(map[Stage]bool)
	for _, s := range stages {
		if seen[s] {
			t.Errorf("duplicate stage %s", s)
		}
		seen[s] = true

		if !IsValidStage(string(s)) {
			t.Errorf("stage %s should be valid", s)
		}
		if s.Description() == "unknown" {
			t.Errorf("stage %s has no description", s)
		}
	}

	if IsValidStage("S7_AUDIT") {
		t.Error("S7_AUDIT should not be a valid stage")
	}
}

func TestRunResult_FindStage(t *testing.T) {
	r := &RunResult{
		Stages: []StageResult{
			{Stage: StageQuality, InputCount: 10, OutputCount: 8},
			{Stage: StageLoyalty, InputCount: 8, OutputCount: 8},
		},
	}

	got, ok := r.FindStage(StageLoyalty)
	if !ok {
		t.Fatal("expected loyalty stage to be found")
	}
	if got.InputCount != 8 {
		t.Errorf("InputCount = %d, want 8", got.InputCount)
	}

	if _, ok := r.FindStage(StageEvents); ok {
		t.Error("events stage should not be found")
	}
}

func TestBalances_CloneIsIndependent(t *testing.T) {
	b := Balances{"C001": 10}
	c := b.Clone()
	c["C001"] = 99
	c["C002"] = 1

	if b["C001"] != 10 {
		t.Errorf("original mutated: %d", b["C001"])
	}
	if _, ok := b["C002"]; ok {
		t.Error("original gained a key")
	}
}

func TestQualityReport_CleanRate(t *testing.T) {
	empty := &QualityReport{}
	if empty.CleanRate() != 1.0 {
		t.Errorf("empty report clean rate = %f, want 1.0", empty.CleanRate())
	}

	r := &QualityReport{
		CleanHeaders:    make([]TransactionHeader, 3),
		RejectedHeaders: make([]RejectedHeader, 1),
	}
	if r.CleanRate() != 0.75 {
		t.Errorf("clean rate = %f, want 0.75", r.CleanRate())
	}
}

func TestRFMRecord_NewlyAtRisk(t *testing.T) {
	tests := []struct {
		name     string
		segment  string
		previous string
		want     bool
	}{
		{"first classification", SegmentAtRisk, "", true},
		{"moved from core", SegmentAtRisk, SegmentCore, true},
		{"already at risk", SegmentAtRisk, SegmentAtRisk, false},
		{"core", SegmentCore, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RFMRecord{Segment: tt.segment, PreviousSegment: tt.previous}
			if got := r.NewlyAtRisk(); got != tt.want {
				t.Errorf("NewlyAtRisk() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDateOnly_CrossZone(t *testing.T) {
	kst := time.FixedZone("KST", 9*3600)
	a := time.Date(2026, 3, 1, 23, 30, 0, 0, kst)
	b := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)

	if !DateOnly(a).Equal(DateOnly(b)) {
		t.Errorf("expected same calendar day, got %s and %s", DateOnly(a), DateOnly(b))
	}
}

func TestParseMetric(t *testing.T) {
	if m, ok := ParseMetric("units"); !ok || m != MetricUnits {
		t.Errorf("ParseMetric(units) = %s, %v", m, ok)
	}
	if m, ok := ParseMetric("revenue"); !ok || m != MetricRevenue {
		t.Errorf("ParseMetric(revenue) = %s, %v", m, ok)
	}
	if _, ok := ParseMetric("margin"); ok {
		t.Error("ParseMetric(margin) should fail")
	}
}
