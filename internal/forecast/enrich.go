package forecast

import (
	"math"

	"github.com/danwib/tacwx/internal/config"
	"github.com/danwib/tacwx/internal/wxcalc"
)

// DerivedOptions bundles the tunables the enricher needs
type DerivedOptions struct {
	Thresholds  wxcalc.Thresholds
	Limits      wxcalc.Limits
	Declination float64 // local magnetic declination in degrees (+East)
}

// OptionsFromConfig builds enrichment options from the derived-metrics
// config section
func OptionsFromConfig(cfg config.DerivedConfig, declination float64) DerivedOptions {
	return DerivedOptions{
		Thresholds: wxcalc.Thresholds{
			VFRMinVisSM:     cfg.VFRMinVisSM,
			VFRMinCeilingFt: cfg.VFRMinCeilingFt,
			IFRMaxVisSM:     cfg.IFRMaxVisSM,
			IFRMaxCeilingFt: cfg.IFRMaxCeilingFt,
		},
		Limits: wxcalc.Limits{
			WindNoGoKt:     cfg.WindNoGoKt,
			WindAdvisoryKt: cfg.WindAdvisoryKt,
			VisNoLandingM:  cfg.VisNoLandingM,
			RainCautionMM:  cfg.RainCautionMM,
			RainAdvisoryMM: cfg.RainAdvisoryMM,
		},
		Declination: declination,
	}
}

// Enrich computes the derived meteorology for every flattened record.
// The input slice is not modified.
func Enrich(records []Record, opts DerivedOptions) []EnrichedRecord {
	enriched := make([]EnrichedRecord, 0, len(records))
	for _, rec := range records {
		enriched = append(enriched, enrichOne(rec, opts))
	}
	return enriched
}

func enrichOne(rec Record, opts DerivedOptions) EnrichedRecord {
	windKt := wxcalc.Knots(float64(rec.WindSpeedMS))
	u, v := wxcalc.WindComponents(float64(rec.WindSpeedMS), float64(rec.WindDirDeg))
	ceiling := wxcalc.CeilingFromCloudCover(float64(rec.CloudCoverPct))
	visSM := wxcalc.StatuteMiles(float64(rec.VisibilityM))
	category := wxcalc.FlightCategory(visSM, ceiling.BaseFt, opts.Thresholds)
	rec2 := wxcalc.Recommend(windKt, float64(rec.VisibilityM), float64(rec.PrecipMM), opts.Limits)

	var windDirMag float64 = math.NaN()
	if !rec.WindDirDeg.IsNaN() {
		windDirMag = wxcalc.TrueToMagnetic(float64(rec.WindDirDeg), opts.Declination)
	}

	return EnrichedRecord{
		Record: rec,

		DewPointC:         Metric(wxcalc.DewPointMagnus(float64(rec.TempC), float64(rec.HumidityPct))),
		WindSpeedKt:       Metric(windKt),
		WindU:             Metric(u),
		WindV:             Metric(v),
		WindDirMagDeg:     Metric(windDirMag),
		CeilingFt:         Metric(ceiling.BaseFt),
		CeilingLabel:      ceiling.Label,
		VisibilitySM:      Metric(visSM),
		VisibilityDisplay: wxcalc.FormatVisibility(visSM),
		Category:          string(category),
		Takeoff:           string(rec2.Takeoff),
		Landing:           string(rec2.Landing),
		Rationale:         rec2.Rationale,
	}
}
