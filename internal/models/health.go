package models

// HealthAttributes is the questionnaire record sent to the tabular model.
// JSON names must match what the /predict endpoint expects.
type HealthAttributes struct {
	BMI              float64 `json:"BMI"`
	Smoking          string  `json:"Smoking"`
	AlcoholDrinking  string  `json:"AlcoholDrinking"`
	Stroke           string  `json:"Stroke"`
	PhysicalHealth   float64 `json:"PhysicalHealth"`
	MentalHealth     float64 `json:"MentalHealth"`
	DiffWalking      string  `json:"DiffWalking"`
	Sex              string  `json:"Sex"`
	AgeCategory      string  `json:"AgeCategory"`
	Race             string  `json:"Race"`
	Diabetic         string  `json:"Diabetic"`
	PhysicalActivity string  `json:"PhysicalActivity"`
	GenHealth        string  `json:"GenHealth"`
	SleepTime        float64 `json:"SleepTime"`
	Asthma           string  `json:"Asthma"`
	KidneyDisease    string  `json:"KidneyDisease"`
	SkinCancer       string  `json:"SkinCancer"`
}

const (
	Yes = "Yes"
	No  = "No"
)

// Option lists accepted by the tabular model.
var (
	YesNoOptions = []string{Yes, No}
	SexOptions   = []string{"Male", "Female"}

	AgeCategories = []string{
		"18-24", "25-29", "30-34", "35-39", "40-44", "45-49", "50-54",
		"55-59", "60-64", "65-69", "70-74", "75-79", "80 or older",
	}

	RaceCategories = []string{
		"White", "Black", "Asian", "American Indian/Alaskan Native",
		"Other", "Hispanic",
	}

	DiabeticOptions = []string{
		"No",
		"Yes",
		"No, borderline diabetes",
		"Yes (during pregnancy)",
	}

	GenHealthOptions = []string{"Very good", "Fair", "Good", "Poor", "Excellent"}
)

// Bounds is the closed interval a numeric attribute is clamped to.
type Bounds struct {
	Min float64
	Max float64
}

// Clamp returns v limited to [b.Min, b.Max].
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// NumericBounds are the input-control limits for the numeric attributes.
var NumericBounds = map[string]Bounds{
	"BMI":            {Min: 10, Max: 60},
	"PhysicalHealth": {Min: 0, Max: 30},
	"MentalHealth":   {Min: 0, Max: 30},
	"SleepTime":      {Min: 0, Max: 24},
}

// CategoricalOptions maps every categorical attribute to its allowed values.
var CategoricalOptions = map[string][]string{
	"Smoking":          YesNoOptions,
	"AlcoholDrinking":  YesNoOptions,
	"Stroke":           YesNoOptions,
	"DiffWalking":      YesNoOptions,
	"Sex":              SexOptions,
	"AgeCategory":      AgeCategories,
	"Race":             RaceCategories,
	"Diabetic":         DiabeticOptions,
	"PhysicalActivity": YesNoOptions,
	"GenHealth":        GenHealthOptions,
	"Asthma":           YesNoOptions,
	"KidneyDisease":    YesNoOptions,
	"SkinCancer":       YesNoOptions,
}

// DefaultHealthAttributes returns the record every new wizard session starts from.
func DefaultHealthAttributes() HealthAttributes {
	return HealthAttributes{
		BMI:              25,
		Smoking:          No,
		AlcoholDrinking:  No,
		Stroke:           No,
		PhysicalHealth:   0,
		MentalHealth:     0,
		DiffWalking:      No,
		Sex:              "Male",
		AgeCategory:      "18-24",
		Race:             "White",
		Diabetic:         No,
		PhysicalActivity: Yes,
		GenHealth:        "Very good",
		SleepTime:        7,
		Asthma:           No,
		KidneyDisease:    No,
		SkinCancer:       No,
	}
}

// numericField returns a pointer to the named numeric attribute.
func (h *HealthAttributes) numericField(name string) *float64 {
	switch name {
	case "BMI":
		return &h.BMI
	case "PhysicalHealth":
		return &h.PhysicalHealth
	case "MentalHealth":
		return &h.MentalHealth
	case "SleepTime":
		return &h.SleepTime
	}
	return nil
}

// categoricalField returns a pointer to the named categorical attribute.
func (h *HealthAttributes) categoricalField(name string) *string {
	switch name {
	case "Smoking":
		return &h.Smoking
	case "AlcoholDrinking":
		return &h.AlcoholDrinking
	case "Stroke":
		return &h.Stroke
	case "DiffWalking":
		return &h.DiffWalking
	case "Sex":
		return &h.Sex
	case "AgeCategory":
		return &h.AgeCategory
	case "Race":
		return &h.Race
	case "Diabetic":
		return &h.Diabetic
	case "PhysicalActivity":
		return &h.PhysicalActivity
	case "GenHealth":
		return &h.GenHealth
	case "Asthma":
		return &h.Asthma
	case "KidneyDisease":
		return &h.KidneyDisease
	case "SkinCancer":
		return &h.SkinCancer
	}
	return nil
}

// IsNumeric reports whether name is one of the numeric attributes.
func IsNumeric(name string) bool {
	_, ok := NumericBounds[name]
	return ok
}

// SetNumeric stores v, clamped to the attribute's bounds, and returns the stored value.
// ok is false when name is not a numeric attribute.
func (h *HealthAttributes) SetNumeric(name string, v float64) (stored float64, ok bool) {
	field := h.numericField(name)
	if field == nil {
		return 0, false
	}
	*field = NumericBounds[name].Clamp(v)
	return *field, true
}

// SetCategorical stores v when it is one of the attribute's allowed options.
// known is false for an unknown attribute, allowed is false for a value outside the option list.
func (h *HealthAttributes) SetCategorical(name, v string) (known, allowed bool) {
	field := h.categoricalField(name)
	if field == nil {
		return false, false
	}
	for _, opt := range CategoricalOptions[name] {
		if opt == v {
			*field = v
			return true, true
		}
	}
	return true, false
}
