package core

import "math"

// Magnus formula coefficients over water (C20, C30) and the pair used for the
// dew point below freezing.
const (
	magnusC20    = 17.5043
	magnusC30    = 241.2
	magnusIceC20 = 22.4433
	magnusIceC30 = 272.186
)

// DewPoint converts air temperature ta (°C) and relative humidity uu (%) to a dew point (°C).
// Humidity outside (0, 100) has no dew point.
func DewPoint(ta, uu float64) (float64, bool) {
	if !(uu > 0 && uu < 100) || math.IsNaN(ta) {
		return 0, false
	}
	c2, c3 := magnusC20, magnusC30
	if ta < 0 {
		c2, c3 = magnusIceC20, magnusIceC30
	}
	a := magnusC20 * ta / (magnusC30 + ta)
	lu := math.Log(uu / 100)
	td := c3 * (a + lu) / (c2 - a - lu)
	if math.IsNaN(td) || math.IsInf(td, 0) {
		return 0, false
	}
	return td, true
}

// Humidity converts air temperature ta and dew point td (°C) back to relative humidity (%).
func Humidity(ta, td float64) (float64, bool) {
	uu := 100 * math.Exp(magnusC20*td/(magnusC30+td)-magnusC20*ta/(magnusC30+ta))
	if math.IsNaN(uu) || math.IsInf(uu, 0) {
		return 0, false
	}
	return uu, true
}
