// Package profile holds the active user configuration snapshot: insulin
// action settings, basal and carb-ratio schedules, and meal limits. A
// Profile is owned by the caller and read-only for the core packages.
package profile

// InsulinCurve selects the insulin activity model.
type InsulinCurve string

const (
	CurveBilinear    InsulinCurve = "bilinear"
	CurveRapidActing InsulinCurve = "rapid-acting"
	CurveUltraRapid  InsulinCurve = "ultra-rapid"
)

// DefaultPeak returns the curve's default peak activity time in minutes.
func (c InsulinCurve) DefaultPeak() int {
	if c == CurveUltraRapid {
		return 55
	}
	return 75
}

// BasalEntry is one entry in a basal rate schedule.
type BasalEntry struct {
	Index   int     `yaml:"index" json:"i"`
	Start   string  `yaml:"start,omitempty" json:"start,omitempty"` // HH:MM:SS, informational
	Rate    float64 `yaml:"rate" json:"rate"`                       // U/hr
	Minutes int     `yaml:"minutes" json:"minutes"`                 // minutes from midnight
}

// CarbRatioEntry is one entry in a carb ratio schedule.
type CarbRatioEntry struct {
	Index   int     `yaml:"index" json:"i"`
	Start   string  `yaml:"start,omitempty" json:"start,omitempty"`
	Ratio   float64 `yaml:"ratio" json:"ratio"` // grams per unit
	Minutes int     `yaml:"minutes" json:"minutes"`
}

// Profile contains all user settings consumed by the core.
//
// Defaults (see Default):
//
//	DIA 5.0 h, curve rapid-acting, peak 75 min, current basal 1.0 U/hr,
//	sens 50 mg/dL/U, carb ratio 10 g/U, autosens 0.7-1.2,
//	min 5m carb impact 8 mg/dL, max COB 120 g, max meal absorption 6 h,
//	max IOB 0, max basal 3.5 U/hr, targets 100-120 mg/dL,
//	SMB interval 3 min, bolus increment 0.1 U, SMB delivery ratio 0.5,
//	max SMB basal minutes 30, empty schedules (scalar fallbacks apply).
type Profile struct {
	DIA               float64      `yaml:"dia" json:"dia"` // hours
	Curve             InsulinCurve `yaml:"curve" json:"curve"`
	UseCustomPeakTime bool         `yaml:"useCustomPeakTime" json:"useCustomPeakTime"`
	InsulinPeakTime   int          `yaml:"insulinPeakTime" json:"insulinPeakTime"` // minutes

	CurrentBasal float64 `yaml:"currentBasal" json:"current_basal"` // U/hr
	MaxIOB       float64 `yaml:"maxIOB" json:"max_iob"`
	MaxBasal     float64 `yaml:"maxBasal" json:"max_basal"`
	MinBG        float64 `yaml:"minBG" json:"min_bg"`
	MaxBG        float64 `yaml:"maxBG" json:"max_bg"`
	Sens         float64 `yaml:"sens" json:"sens"`            // mg/dL per unit
	CarbRatio    float64 `yaml:"carbRatio" json:"carb_ratio"` // grams per unit

	AutosensMin     float64 `yaml:"autosensMin" json:"autosens_min"`
	AutosensMax     float64 `yaml:"autosensMax" json:"autosens_max"`
	Min5mCarbImpact float64 `yaml:"min5mCarbImpact" json:"min_5m_carbimpact"` // mg/dL per 5 min

	MaxCOB                 float64 `yaml:"maxCOB" json:"maxCOB"` // grams
	MaxMealAbsorptionHours float64 `yaml:"maxMealAbsorptionHours" json:"max_meal_absorption_time"`

	SMBInterval          int     `yaml:"smbInterval" json:"smb_interval"` // minutes
	BolusIncrement       float64 `yaml:"bolusIncrement" json:"bolus_increment"`
	SMBDeliveryRatio     float64 `yaml:"smbDeliveryRatio" json:"smb_delivery_ratio"`
	MaxSMBBasalMinutes   int     `yaml:"maxSMBBasalMinutes" json:"maxSMBBasalMinutes"`
	MaxUAMBasalMinutes   int     `yaml:"maxUAMBasalMinutes" json:"maxUAMSMBBasalMinutes"`
	EnableUAM            bool    `yaml:"enableUAM" json:"enableUAM"`
	RewindResetsAutosens bool    `yaml:"rewindResetsAutosens" json:"rewind_resets_autosens"`
	SuspendZerosIOB      bool    `yaml:"suspendZerosIOB" json:"suspend_zeros_iob"`

	BasalSchedule     []BasalEntry     `yaml:"basalSchedule" json:"basalprofile,omitempty"`
	CarbRatioSchedule []CarbRatioEntry `yaml:"carbRatioSchedule" json:"carb_ratio_profile,omitempty"`
}

// Default returns a profile with the documented default values.
func Default() *Profile {
	return &Profile{
		DIA:                    5.0,
		Curve:                  CurveRapidActing,
		InsulinPeakTime:        75,
		CurrentBasal:           1.0,
		MaxIOB:                 0,
		MaxBasal:               3.5,
		MinBG:                  100,
		MaxBG:                  120,
		Sens:                   50,
		CarbRatio:              10,
		AutosensMin:            0.7,
		AutosensMax:            1.2,
		Min5mCarbImpact:        8,
		MaxCOB:                 120,
		MaxMealAbsorptionHours: 6,
		SMBInterval:            3,
		BolusIncrement:         0.1,
		SMBDeliveryRatio:       0.5,
		MaxSMBBasalMinutes:     30,
		MaxUAMBasalMinutes:     30,
		RewindResetsAutosens:   true,
		SuspendZerosIOB:        true,
	}
}

// EffectiveDIA returns the duration of insulin action in hours, enforcing
// the curve-dependent minimum. Short user-entered DIA values would otherwise
// under-estimate active insulin.
func (p *Profile) EffectiveDIA() float64 {
	min := 5.0
	if p.Curve == CurveBilinear {
		min = 3.0
	}
	if p.DIA < min {
		return min
	}
	return p.DIA
}

// EffectivePeak returns the insulin peak time in minutes. A custom peak is
// clamped to the curve's supported range; the bilinear curve has a fixed
// peak.
func (p *Profile) EffectivePeak() int {
	if !p.UseCustomPeakTime {
		return p.Curve.DefaultPeak()
	}
	switch p.Curve {
	case CurveUltraRapid:
		return clamp(p.InsulinPeakTime, 35, 100)
	case CurveBilinear:
		return 75
	default:
		return clamp(p.InsulinPeakTime, 50, 120)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
