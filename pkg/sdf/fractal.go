package sdf

import (
	"math"

	"github.com/df07/go-sdf-pathtracer/pkg/core"
)

const mandelbulbBailout = 2.0

// mandelbulbDistance estimates the distance to a power-n Mandelbulb of unit scale
// using the running derivative of the orbit.
func mandelbulbDistance(p core.Vec3, power float64, iterations int) float64 {
	z := p
	dr := 1.0
	r := z.Length()
	if r < 1e-12 {
		// The origin is always inside the set
		return 0
	}

	for i := 0; i < iterations; i++ {
		r = z.Length()
		if r > mandelbulbBailout || r < 1e-12 {
			break
		}

		theta := math.Acos(math.Max(-1, math.Min(1, z.Z/r)))
		phi := math.Atan2(z.Y, z.X)
		dr = math.Pow(r, power-1)*power*dr + 1

		zr := math.Pow(r, power)
		sinTheta, cosTheta := math.Sincos(theta * power)
		sinPhi, cosPhi := math.Sincos(phi * power)
		z = core.NewVec3(sinTheta*cosPhi, sinPhi*sinTheta, cosTheta).Multiply(zr).Add(p)
	}

	if r < 1e-12 {
		return 0
	}
	return 0.5 * math.Log(r) * r / dr
}

// mengerDistance is the distance to a Menger sponge filling the cube [-1, 1]³
func mengerDistance(p core.Vec3, iterations int) float64 {
	d := boxDistance(p, core.NewVec3(1, 1, 1))
	scale := 1.0
	for i := 0; i < iterations; i++ {
		a := core.NewVec3(floorMod(p.X*scale, 2)-1, floorMod(p.Y*scale, 2)-1, floorMod(p.Z*scale, 2)-1)
		scale *= 3
		r := core.NewVec3(
			math.Abs(1-3*math.Abs(a.X)),
			math.Abs(1-3*math.Abs(a.Y)),
			math.Abs(1-3*math.Abs(a.Z)),
		)
		da := math.Max(r.X, r.Y)
		db := math.Max(r.Y, r.Z)
		dc := math.Max(r.Z, r.X)
		c := (math.Min(da, math.Min(db, dc)) - 1) / scale
		d = math.Max(d, c)
	}
	return d
}

func floorMod(x, m float64) float64 {
	return x - m*math.Floor(x/m)
}
