package meteo

import "math"

// WindChill returns the perceived temperature in °C for cold, windy
// conditions, using the JAG/TI formula adopted by Environment Canada and
// the US NWS. Wind speed is in km/h. Below 5 km/h the wind has no
// measurable cooling effect and the air temperature is returned unchanged.
func WindChill(tempC, windKmh float64) float64 {
	if windKmh < 5 {
		return tempC
	}
	v := math.Pow(windKmh, 0.16)
	return 13.12 + 0.6215*tempC - 11.37*v + 0.3965*tempC*v
}

// HeatIndex returns the perceived temperature in °C for hot, humid
// conditions, using the NWS Rothfusz regression. Humidity is relative
// humidity in percent. The regression is defined in Fahrenheit, so the
// input is converted, evaluated and converted back.
func HeatIndex(tempC, humidityPct float64) float64 {
	t := tempC*9/5 + 32
	rh := humidityPct

	hi := -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		6.83783e-3*t*t -
		5.481717e-2*rh*rh +
		1.22874e-3*t*t*rh +
		8.5282e-4*t*rh*rh -
		1.99e-6*t*t*rh*rh

	return (hi - 32) * 5 / 9
}
