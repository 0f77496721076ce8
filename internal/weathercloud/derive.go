package weathercloud

import (
	"math"

	"github.com/pwshub/weathercloud-hub/internal/meteo"
)

// Cloud-base estimation is only physically meaningful above an extreme
// cold cutoff; below it the sentinel makes the report fail validation
// instead of carrying a bogus height.
const (
	cloudsCutoff  = -40.0
	cloudsUnknown = -1.0
	cloudsFactor  = 124.69
	fogCeiling    = 150.0
)

// CloudsHeight estimates the cloud-base height in metres from the
// temperature / dew-point spread. Returns -1 when either input sits at or
// below the -40 cutoff.
func CloudsHeight(temp, dew float64) float64 {
	if temp > cloudsCutoff && dew > cloudsCutoff {
		return math.Max(0, cloudsFactor*(temp-dew))
	}
	return cloudsUnknown
}

// WeatherStatus maps pressure, rain rate and cloud base onto the fixed
// condition vocabulary. Rain intensity overrides everything else; dry
// weather is classified by pressure, with the fog suffix overlaid
// whenever the cloud base is under 150 m.
func WeatherStatus(bar, rainRate, clouds float64) Condition {
	if rainRate > 0 {
		switch {
		case rainRate < 2:
			return ConditionLight
		case rainRate < 15:
			return ConditionModerate
		default:
			return ConditionHeavy
		}
	}

	var cond Condition
	switch {
	case bar < 1005:
		cond = ConditionCloud
	case bar < 1010:
		cond = ConditionChange
	case bar < 1015:
		cond = ConditionFew
	default:
		cond = ConditionClear
	}
	if clouds < fogCeiling {
		cond = cond.withFog()
	}
	return cond
}

// FeelsLike picks the perceived temperature: wind chill in the cold, heat
// index in the heat, the plain temperature in between.
func FeelsLike(temp, wspd, hum float64) float64 {
	switch {
	case temp < 10:
		return meteo.WindChill(temp, wspd)
	case temp > 26:
		return meteo.HeatIndex(temp, hum)
	default:
		return temp
	}
}

// Derive computes all indicators for one sample.
func Derive(s RawSample) DerivedIndicators {
	var temp float64
	if s.Temp != nil {
		temp = *s.Temp
	}

	clouds := CloudsHeight(temp, s.Dew)
	return DerivedIndicators{
		CloudsHeight: clouds,
		Condition:    WeatherStatus(s.Bar, s.RainRate, clouds),
		Feel:         FeelsLike(temp, s.Wspd, s.Hum),
	}
}
