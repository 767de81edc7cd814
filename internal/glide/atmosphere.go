package glide

import "math"

// International Standard Atmosphere, troposphere.
const (
	SeaLevelPressure    = 101325.0  // Pa
	SeaLevelTemperature = 288.15    // K
	LapseRate           = 0.0065    // K/m
	Gravity             = 9.80665   // m/s²
	MolarMass           = 0.0289644 // kg/mol
	GasConstant         = 8.3144598 // J/(mol·K)
)

func Temperature(altitude float64) float64 {
	return SeaLevelTemperature - LapseRate*altitude
}

func Pressure(altitude float64) float64 {
	return SeaLevelPressure * math.Pow(1-LapseRate*altitude/SeaLevelTemperature, Gravity*MolarMass/(GasConstant*LapseRate))
}

func Density(altitude float64) float64 {
	return Pressure(altitude) / (GasConstant / MolarMass * Temperature(altitude))
}

// DynamicPressure returns ½ρv² at the given altitude and airspeed.
func DynamicPressure(altitude, speed float64) float64 {
	return 0.5 * Density(altitude) * speed * speed
}
