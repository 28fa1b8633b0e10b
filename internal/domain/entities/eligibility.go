package entities

// Gender drives the sex-specific hemoglobin and donation-interval thresholds.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// DonorProfile holds the attributes screened before a donation. Pointer
// fields are optional; criteria depending on them are skipped when nil.
type DonorProfile struct {
	ID                    string   `json:"id,omitempty"`
	Age                   int      `json:"age" validate:"gte=0,lte=130"`
	WeightKg              float64  `json:"weight_kg" validate:"gt=0,lt=500"`
	HeightCm              *float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0,lt=300"`
	Gender                Gender   `json:"gender,omitempty" validate:"omitempty,oneof=male female"`
	HemoglobinGdL         *float64 `json:"hemoglobin_g_dl,omitempty" validate:"omitempty,gt=0,lt=30"`
	DiseaseTestsNegative  *bool    `json:"disease_tests_negative,omitempty"`
	DaysSinceLastDonation *int     `json:"days_since_last_donation,omitempty" validate:"omitempty,gte=0"`
}

// Validate rejects physically meaningless attributes. Out-of-policy but
// plausible values (age 17, 45 kg) are left for the evaluator to fail.
func (p *DonorProfile) Validate() error {
	return validateStruct("donor profile", p)
}

// BMI returns weight / height² when height is known.
func (p *DonorProfile) BMI() (float64, bool) {
	if p.HeightCm == nil || *p.HeightCm <= 0 {
		return 0, false
	}
	m := *p.HeightCm / 100
	return p.WeightKg / (m * m), true
}

// EligibilityCriterion is one evaluated screening rule.
type EligibilityCriterion struct {
	Name     string `json:"name"`
	Observed string `json:"observed"`
	Required string `json:"required"`
	Reason   string `json:"reason,omitempty"`
	Passed   bool   `json:"passed"`
}

// EligibilityResult lists every evaluated criterion in evaluation order.
type EligibilityResult struct {
	Passed   bool                   `json:"passed"`
	Criteria []EligibilityCriterion `json:"criteria"`
}

// Failed returns the criteria that did not pass, in order.
func (r EligibilityResult) Failed() []EligibilityCriterion {
	var failed []EligibilityCriterion
	for _, c := range r.Criteria {
		if !c.Passed {
			failed = append(failed, c)
		}
	}
	return failed
}

// Reasons returns the human-readable reasons of the failed criteria.
func (r EligibilityResult) Reasons() []string {
	failed := r.Failed()
	reasons := make([]string, 0, len(failed))
	for _, c := range failed {
		reasons = append(reasons, c.Reason)
	}
	return reasons
}
