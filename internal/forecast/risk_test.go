package forecast

import (
	"testing"

	"github.com/fintrack/assistant-service/internal/models"
)

func TestScoreBudgetsProjection(t *testing.T) {
	lines := []models.BudgetLine{
		{Category: "Food", Amount: 1000, SpentToDate: 900},
	}
	report := ScoreBudgets(lines, 20, 30)

	if len(report.Projections) != 1 {
		t.Fatalf("Projections count = %d, want 1", len(report.Projections))
	}
	p := report.Projections[0]

	if !almostEqual(p.DailyAverage, 45) {
		t.Errorf("DailyAverage = %v, want 45", p.DailyAverage)
	}
	if !almostEqual(p.ProjectedTotal, 1350) {
		t.Errorf("ProjectedTotal = %v, want 1350", p.ProjectedTotal)
	}
	// 135% projected utilization sits in the top risk bucket.
	if p.RiskScore != 100 {
		t.Errorf("RiskScore = %d, want 100", p.RiskScore)
	}
	if !p.WillExceed || !almostEqual(p.OverAmount, 350) {
		t.Errorf("WillExceed=%v OverAmount=%v, want true / 350", p.WillExceed, p.OverAmount)
	}
	if len(report.HighRisk) != 1 {
		t.Errorf("HighRisk count = %d, want 1", len(report.HighRisk))
	}
	if report.RiskLevel != models.RiskCritical {
		t.Errorf("RiskLevel = %q, want %q", report.RiskLevel, models.RiskCritical)
	}
}

func TestRiskScoreStepFunction(t *testing.T) {
	tests := []struct {
		utilization float64
		want        int
	}{
		{0, 20},
		{80, 20},
		{80.1, 40},
		{90, 40},
		{90.1, 60},
		{100, 60},
		{100.1, 80},
		{120, 80},
		{120.1, 100},
		{200, 100},
	}
	prev := 0
	prevUtil := -1.0
	for _, tt := range tests {
		got := riskScore(tt.utilization)
		if got != tt.want {
			t.Errorf("riskScore(%v) = %d, want %d", tt.utilization, got, tt.want)
		}
		// Monotonically non-decreasing in utilization.
		if tt.utilization > prevUtil && got < prev {
			t.Errorf("riskScore not monotonic at %v: %d < %d", tt.utilization, got, prev)
		}
		prev, prevUtil = got, tt.utilization
	}
}

func TestScoreBudgetsZeroSpendScoresLowest(t *testing.T) {
	lines := []models.BudgetLine{{Category: "Travel", Amount: 500, SpentToDate: 0}}
	report := ScoreBudgets(lines, 15, 30)
	if report.Projections[0].RiskScore != 20 {
		t.Errorf("RiskScore = %d, want 20", report.Projections[0].RiskScore)
	}
}

func TestScoreBudgetsSkipsZeroBudget(t *testing.T) {
	lines := []models.BudgetLine{
		{Category: "Broken", Amount: 0, SpentToDate: 100},
		{Category: "Food", Amount: 1000, SpentToDate: 100},
	}
	report := ScoreBudgets(lines, 10, 30)
	if len(report.Projections) != 1 {
		t.Fatalf("Projections count = %d, want 1 (zero budget skipped)", len(report.Projections))
	}
	if report.Projections[0].Category != "Food" {
		t.Errorf("Category = %q, want Food", report.Projections[0].Category)
	}
}

func TestScoreBudgetsZeroDayGuard(t *testing.T) {
	lines := []models.BudgetLine{{Category: "Food", Amount: 1000, SpentToDate: 500}}
	report := ScoreBudgets(lines, 0, 31)
	p := report.Projections[0]
	if p.DailyAverage != 0 {
		t.Errorf("DailyAverage = %v, want 0 when no days have elapsed", p.DailyAverage)
	}
	if !almostEqual(p.ProjectedTotal, 500) {
		t.Errorf("ProjectedTotal = %v, want 500", p.ProjectedTotal)
	}
}

func TestScoreBudgetsEmpty(t *testing.T) {
	report := ScoreBudgets(nil, 10, 30)
	if report.RiskScore != 0 {
		t.Errorf("RiskScore = %v, want 0", report.RiskScore)
	}
	if report.RiskLevel != models.RiskNone {
		t.Errorf("RiskLevel = %q, want %q", report.RiskLevel, models.RiskNone)
	}
}

func TestScoreBudgetsOverallMean(t *testing.T) {
	// One line projecting at ~50% (score 20) and one at ~135% (score 100).
	lines := []models.BudgetLine{
		{Category: "Rent", Amount: 2000, SpentToDate: 667},
		{Category: "Food", Amount: 1000, SpentToDate: 900},
	}
	report := ScoreBudgets(lines, 20, 30)
	if !almostEqual(report.RiskScore, 60) {
		t.Errorf("RiskScore = %v, want 60", report.RiskScore)
	}
	if report.RiskLevel != models.RiskHigh {
		t.Errorf("RiskLevel = %q, want %q", report.RiskLevel, models.RiskHigh)
	}
}
