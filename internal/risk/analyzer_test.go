package risk

import (
	"testing"

	"github.com/AhmedHarera/HeartFailure/internal/models"
)

// safeAttributes returns a record that triggers no factor.
func safeAttributes() models.HealthAttributes {
	a := models.DefaultHealthAttributes()
	a.BMI = 22
	return a
}

func TestAnalyzeSafeRecordHasNoFactors(t *testing.T) {
	if got := Analyze(safeAttributes()); len(got) != 0 {
		t.Fatalf("expected no factors, got %+v", got)
	}
}

func TestAnalyzeScenarioObeseSmokerSedentary(t *testing.T) {
	a := safeAttributes()
	a.BMI = 32
	a.Smoking = "Yes"
	a.PhysicalActivity = "No"

	got := Analyze(a)
	want := []models.RiskFactor{
		{Factor: "BMI", Status: "Obese", Severity: models.SeverityHigh},
		{Factor: "Smoking", Status: "Active smoker", Severity: models.SeverityHigh},
		{Factor: "Physical Activity", Status: "Sedentary lifestyle", Severity: models.SeverityHigh},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d factors, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("factor %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAnalyzeBMIThresholds(t *testing.T) {
	cases := []struct {
		bmi    float64
		status string
		sev    models.Severity
	}{
		{bmi: 24.9},
		{bmi: 25, status: "Overweight", sev: models.SeverityMedium},
		{bmi: 29.99, status: "Overweight", sev: models.SeverityMedium},
		{bmi: 30, status: "Obese", sev: models.SeverityHigh},
		{bmi: 60, status: "Obese", sev: models.SeverityHigh},
	}
	for _, tc := range cases {
		a := safeAttributes()
		a.BMI = tc.bmi
		got := Analyze(a)
		if tc.status == "" {
			if len(got) != 0 {
				t.Errorf("BMI %v: expected no factor, got %+v", tc.bmi, got)
			}
			continue
		}
		if len(got) != 1 || got[0].Factor != "BMI" || got[0].Status != tc.status || got[0].Severity != tc.sev {
			t.Errorf("BMI %v: got %+v, want %s/%s", tc.bmi, got, tc.status, tc.sev)
		}
	}
}

func TestAnalyzeObeseNeverLowSeverity(t *testing.T) {
	for bmi := 30.0; bmi <= 60; bmi += 0.5 {
		a := safeAttributes()
		a.BMI = bmi
		found := false
		for _, f := range Analyze(a) {
			if f.Factor != "BMI" {
				continue
			}
			found = true
			if f.Severity != models.SeverityHigh {
				t.Fatalf("BMI %v: expected high severity, got %s", bmi, f.Severity)
			}
		}
		if !found {
			t.Fatalf("BMI %v: expected a BMI factor", bmi)
		}
	}
}

func TestAnalyzeSleepBoundariesInclusive(t *testing.T) {
	cases := map[float64]string{
		5.9: "Insufficient sleep",
		6:   "",
		9:   "",
		9.1: "Excessive sleep",
		0:   "Insufficient sleep",
		24:  "Excessive sleep",
	}
	for hours, status := range cases {
		a := safeAttributes()
		a.SleepTime = hours
		got := Analyze(a)
		if status == "" {
			if len(got) != 0 {
				t.Errorf("sleep %v: expected none, got %+v", hours, got)
			}
			continue
		}
		if len(got) != 1 || got[0].Status != status || got[0].Severity != models.SeverityMedium {
			t.Errorf("sleep %v: got %+v, want %s", hours, got, status)
		}
	}
}

func TestAnalyzeOrderIsFixed(t *testing.T) {
	a := models.HealthAttributes{
		BMI:              35,
		PhysicalHealth:   20,
		MentalHealth:     20,
		SleepTime:        3,
		Smoking:          "Yes",
		AlcoholDrinking:  "Yes",
		PhysicalActivity: "No",
		Stroke:           "Yes",
		DiffWalking:      "Yes",
		Diabetic:         "Yes",
	}
	want := []struct {
		factor string
		sev    models.Severity
	}{
		{"BMI", models.SeverityHigh},
		{"Physical Health", models.SeverityHigh},
		{"Mental Health", models.SeverityMedium},
		{"Sleep", models.SeverityMedium},
		{"Smoking", models.SeverityHigh},
		{"Alcohol", models.SeverityMedium},
		{"Physical Activity", models.SeverityHigh},
		{"Stroke", models.SeverityHigh},
		{"Mobility", models.SeverityMedium},
		{"Diabetes", models.SeverityHigh},
	}

	got := Analyze(a)
	if len(got) != len(want) {
		t.Fatalf("expected %d factors, got %d: %+v", len(want), len(got), got)
	}
	for i, w := range want {
		if got[i].Factor != w.factor || got[i].Severity != w.sev {
			t.Fatalf("position %d: got %s/%s, want %s/%s", i, got[i].Factor, got[i].Severity, w.factor, w.sev)
		}
	}
}

func TestAnalyzeDiabeticOnlyExactYes(t *testing.T) {
	for _, v := range []string{"No", "No, borderline diabetes", "Yes (during pregnancy)"} {
		a := safeAttributes()
		a.Diabetic = v
		if got := Analyze(a); len(got) != 0 {
			t.Errorf("Diabetic %q: expected no factor, got %+v", v, got)
		}
	}
}

func TestAnalyzeHealthDaysThreshold(t *testing.T) {
	a := safeAttributes()
	a.PhysicalHealth = 14
	a.MentalHealth = 14
	if got := Analyze(a); len(got) != 0 {
		t.Fatalf("14 days should not be flagged, got %+v", got)
	}
	a.PhysicalHealth = 15
	a.MentalHealth = 15
	got := Analyze(a)
	if len(got) != 2 || got[0].Severity != models.SeverityHigh || got[1].Severity != models.SeverityMedium {
		t.Fatalf("expected physical high then mental medium, got %+v", got)
	}
}
