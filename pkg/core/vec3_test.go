package core

import (
	"math"
	"testing"
)

func TestVec3_Reflect(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		normal   Vec3
		expected Vec3
	}{
		{
			name:     "Head-on",
			vector:   NewVec3(0, -1, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(0, 1, 0),
		},
		{
			name:     "45 degrees",
			vector:   NewVec3(1, -1, 0).Normalize(),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 1, 0).Normalize(),
		},
		{
			name:     "Grazing",
			vector:   NewVec3(1, 0, 0),
			normal:   NewVec3(0, 1, 0),
			expected: NewVec3(1, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.vector.Reflect(tt.normal)

			const tolerance = 1e-9
			if result.Subtract(tt.expected).Length() > tolerance {
				t.Errorf("Expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestVec3_IsValidRadiance(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		expected bool
	}{
		{"Zero", NewVec3(0, 0, 0), true},
		{"Positive", NewVec3(1, 2, 3), true},
		{"Negative channel", NewVec3(1, -0.1, 0), false},
		{"NaN", NewVec3(math.NaN(), 0, 0), false},
		{"Inf", NewVec3(0, 0, math.Inf(1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vector.IsValidRadiance(); got != tt.expected {
				t.Errorf("IsValidRadiance(%v) = %v, expected %v", tt.vector, got, tt.expected)
			}
		})
	}
}

func TestOrthonormalBasis(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 0, 1),
		NewVec3(1, 0, 0),
		NewVec3(0, -1, 0),
		NewVec3(1, 2, 3).Normalize(),
	}

	for _, w := range normals {
		u, v := OrthonormalBasis(w)
		if math.Abs(u.Length()-1) > 1e-9 || math.Abs(v.Length()-1) > 1e-9 {
			t.Errorf("basis for %v not unit length: |u|=%f |v|=%f", w, u.Length(), v.Length())
		}
		if math.Abs(u.Dot(w)) > 1e-9 || math.Abs(v.Dot(w)) > 1e-9 || math.Abs(u.Dot(v)) > 1e-9 {
			t.Errorf("basis for %v not orthogonal: u=%v v=%v", w, u, v)
		}
	}
}

func TestAABBClip(t *testing.T) {
	box := NewAABB(NewVec3(-1, -1, -1), NewVec3(1, 1, 1))

	ray := NewRay(NewVec3(-5, 0, 0), NewVec3(1, 0, 0))
	t0, t1, ok := box.Clip(ray, 0, math.Inf(1))
	if !ok {
		t.Fatal("Expected ray through the box to hit")
	}
	if math.Abs(t0-4) > 1e-9 || math.Abs(t1-6) > 1e-9 {
		t.Errorf("Expected interval [4, 6], got [%f, %f]", t0, t1)
	}

	// Origin inside the box starts the interval at tMin
	inside := NewRay(NewVec3(0, 0, 0), NewVec3(0, 1, 0))
	t0, t1, ok = box.Clip(inside, 0, 10)
	if !ok || t0 != 0 || math.Abs(t1-1) > 1e-9 {
		t.Errorf("Expected [0, 1] from inside, got [%f, %f] ok=%v", t0, t1, ok)
	}

	miss := NewRay(NewVec3(-5, 3, 0), NewVec3(1, 0, 0))
	if _, _, ok := box.Clip(miss, 0, math.Inf(1)); ok {
		t.Error("Expected parallel ray outside the slab to miss")
	}
}
