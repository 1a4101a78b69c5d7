// Package risk derives explanatory risk factors from a questionnaire record.
package risk

import "github.com/AhmedHarera/HeartFailure/internal/models"

const (
	obeseBMI        = 30.0
	overweightBMI   = 25.0
	poorHealthDays  = 15.0
	minHealthySleep = 6.0
	maxHealthySleep = 9.0
)

// rule inspects one aspect of the record and reports at most one factor.
type rule func(a *models.HealthAttributes) (models.RiskFactor, bool)

// rules run in this order; it is also the order of Analyze's output.
var rules = []rule{
	bmiRule,
	physicalHealthRule,
	mentalHealthRule,
	sleepRule,
	yesRule("Smoking", "Active smoker", models.SeverityHigh, func(a *models.HealthAttributes) string { return a.Smoking }),
	yesRule("Alcohol", "Regular drinker", models.SeverityMedium, func(a *models.HealthAttributes) string { return a.AlcoholDrinking }),
	physicalActivityRule,
	yesRule("Stroke", "Previous stroke history", models.SeverityHigh, func(a *models.HealthAttributes) string { return a.Stroke }),
	yesRule("Mobility", "Difficulty walking", models.SeverityMedium, func(a *models.HealthAttributes) string { return a.DiffWalking }),
	yesRule("Diabetes", "Diabetic", models.SeverityHigh, func(a *models.HealthAttributes) string { return a.Diabetic }),
}

// Analyze returns the risk factors flagged for attrs. It never fails and may return none.
func Analyze(attrs models.HealthAttributes) []models.RiskFactor {
	factors := make([]models.RiskFactor, 0, len(rules))
	for _, r := range rules {
		if f, ok := r(&attrs); ok {
			factors = append(factors, f)
		}
	}
	return factors
}

func bmiRule(a *models.HealthAttributes) (models.RiskFactor, bool) {
	switch {
	case a.BMI >= obeseBMI:
		return models.RiskFactor{Factor: "BMI", Status: "Obese", Severity: models.SeverityHigh}, true
	case a.BMI >= overweightBMI:
		return models.RiskFactor{Factor: "BMI", Status: "Overweight", Severity: models.SeverityMedium}, true
	}
	return models.RiskFactor{}, false
}

func physicalHealthRule(a *models.HealthAttributes) (models.RiskFactor, bool) {
	if a.PhysicalHealth < poorHealthDays {
		return models.RiskFactor{}, false
	}
	return models.RiskFactor{
		Factor:   "Physical Health",
		Status:   "Poor physical health for more than 2 weeks",
		Severity: models.SeverityHigh,
	}, true
}

func mentalHealthRule(a *models.HealthAttributes) (models.RiskFactor, bool) {
	if a.MentalHealth < poorHealthDays {
		return models.RiskFactor{}, false
	}
	return models.RiskFactor{
		Factor:   "Mental Health",
		Status:   "Poor mental health for more than 2 weeks",
		Severity: models.SeverityMedium,
	}, true
}

// sleepRule treats 6 to 9 hours inclusive as healthy.
func sleepRule(a *models.HealthAttributes) (models.RiskFactor, bool) {
	switch {
	case a.SleepTime < minHealthySleep:
		return models.RiskFactor{Factor: "Sleep", Status: "Insufficient sleep", Severity: models.SeverityMedium}, true
	case a.SleepTime > maxHealthySleep:
		return models.RiskFactor{Factor: "Sleep", Status: "Excessive sleep", Severity: models.SeverityMedium}, true
	}
	return models.RiskFactor{}, false
}

func physicalActivityRule(a *models.HealthAttributes) (models.RiskFactor, bool) {
	if a.PhysicalActivity != models.No {
		return models.RiskFactor{}, false
	}
	return models.RiskFactor{Factor: "Physical Activity", Status: "Sedentary lifestyle", Severity: models.SeverityHigh}, true
}

// yesRule flags a factor when the selected field is exactly "Yes".
func yesRule(factor, status string, sev models.Severity, field func(*models.HealthAttributes) string) rule {
	return func(a *models.HealthAttributes) (models.RiskFactor, bool) {
		if field(a) != models.Yes {
			return models.RiskFactor{}, false
		}
		return models.RiskFactor{Factor: factor, Status: status, Severity: sev}, true
	}
}
