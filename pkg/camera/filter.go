package camera

import (
	"math"
	"sort"
)

// FilterKind selects the reconstruction filter
type FilterKind uint8

const (
	BoxFilter FilterKind = iota
	MitchellFilter
	LanczosFilter
)

// Filter is a separable pixel reconstruction filter. Offsets are in pixels.
type Filter struct {
	Kind   FilterKind
	Radius float64
	B, C   float64 // Mitchell-Netravali parameters
	Tau    float64 // Lanczos window width
}

// NewBoxFilter weights every offset within radius equally
func NewBoxFilter(radius float64) Filter {
	return Filter{Kind: BoxFilter, Radius: radius}
}

// NewMitchellFilter creates a Mitchell-Netravali cubic. B = C = 1/3 is the usual choice.
func NewMitchellFilter(radius, b, c float64) Filter {
	return Filter{Kind: MitchellFilter, Radius: radius, B: b, C: c}
}

// NewLanczosFilter creates a windowed sinc
func NewLanczosFilter(radius, tau float64) Filter {
	return Filter{Kind: LanczosFilter, Radius: radius, Tau: tau}
}

// Evaluate returns the 1D filter weight at offset x
func (f Filter) Evaluate(x float64) float64 {
	switch f.Kind {
	case BoxFilter:
		if math.Abs(x) > f.Radius {
			return 0
		}
		return 1
	case MitchellFilter:
		x = math.Abs(2 * x / f.Radius)
		if x > 2 {
			return 0
		}
		b, c := f.B, f.C
		if x > 1 {
			return ((-b-6*c)*x*x*x + (6*b+30*c)*x*x + (-12*b-48*c)*x + (8*b + 24*c)) / 6
		}
		return ((12-9*b-6*c)*x*x*x + (-18+12*b+6*c)*x*x + (6 - 2*b)) / 6
	case LanczosFilter:
		x = math.Abs(x)
		if x > f.Radius {
			return 0
		}
		return sinc(x) * sinc(x/f.Tau)
	}
	return 0
}

func sinc(x float64) float64 {
	x = math.Abs(x)
	if x < 1e-5 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

const filterTableSize = 256

// FilterSampler draws pixel offsets distributed like |f| using a tabulated
// inverse CDF, so every sample carries unit weight.
type FilterSampler struct {
	radius float64
	cdf    []float64
}

// NewFilterSampler tabulates the filter for importance sampling
func NewFilterSampler(f Filter) *FilterSampler {
	s := &FilterSampler{radius: f.Radius, cdf: make([]float64, filterTableSize+1)}
	if f.Kind == BoxFilter {
		for i := range s.cdf {
			s.cdf[i] = float64(i) / filterTableSize
		}
		return s
	}

	step := 2 * f.Radius / filterTableSize
	for i := 1; i <= filterTableSize; i++ {
		x := -f.Radius + (float64(i)-0.5)*step
		s.cdf[i] = s.cdf[i-1] + math.Abs(f.Evaluate(x))
	}
	total := s.cdf[filterTableSize]
	for i := range s.cdf {
		if total > 0 {
			s.cdf[i] /= total
		} else {
			s.cdf[i] = float64(i) / filterTableSize
		}
	}
	return s
}

// Sample maps u in [0, 1) to an offset in [-radius, radius]
func (s *FilterSampler) Sample(u float64) float64 {
	i := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > u }) - 1
	if i < 0 {
		i = 0
	}
	if i >= filterTableSize {
		i = filterTableSize - 1
	}
	lo, hi := s.cdf[i], s.cdf[i+1]
	frac := 0.0
	if hi > lo {
		frac = (u - lo) / (hi - lo)
	}
	return -s.radius + (float64(i)+frac)*(2*s.radius/filterTableSize)
}
