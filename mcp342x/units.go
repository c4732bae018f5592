package mcp342x

import (
	"math"

	"periph.io/x/conn/v3/physic"
)

// Potential converts a measured value in millivolts to periph's unit type.
func Potential(mv float32) physic.ElectricPotential {
	return physic.ElectricPotential(math.Round(float64(mv) * float64(physic.MilliVolt)))
}
