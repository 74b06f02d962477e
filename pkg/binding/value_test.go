package binding

import (
	"errors"
	"math"
	"testing"
)

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"single", Single(5), "5"},
		{"fraction", Single(2.25), "2.25"},
		{"pair", Pair(1, 9.5), "[1,9.5]"},
		{"nan", Single(math.NaN()), "null"},
		{"nan in pair", Pair(math.NaN(), 2), "[null,2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValueUnmarshal(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"5", Single(5)},
		{"-0.5", Single(-0.5)},
		{"[3, 4]", Pair(3, 4)},
		{"[4, 3]", Pair(4, 3)},
	}
	for _, tt := range tests {
		var v Value
		if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if !v.ApproxEqual(tt.want, 0) {
			t.Errorf("Unmarshal(%s) = %v, want %v", tt.in, v, tt.want)
		}
	}

	var v Value
	if err := json.Unmarshal([]byte("null"), &v); err != nil || !math.IsNaN(v.Float()) {
		t.Errorf("Unmarshal(null) = %v, %v; want NaN", v, err)
	}

	for _, bad := range []string{`"5"`, "[1]", "[1,2,3]", `[1,"x"]`, "{}", "true", "[1,"} {
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Errorf("Unmarshal(%s) succeeded", bad)
		}
		if _, err := DecodeValue([]byte(bad)); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("DecodeValue(%s) error = %v, want ErrInvalidValue", bad, err)
		}
	}
}

func TestValueAccessors(t *testing.T) {
	s := Single(7)
	if s.IsPair() || s.Float() != 7 || s.String() != "7" {
		t.Errorf("single accessors wrong: %v", s)
	}
	if lo, hi := s.Bounds(); lo != 7 || hi != 7 {
		t.Errorf("single Bounds = %v, %v", lo, hi)
	}

	p := Pair(1.5, 3)
	if !p.IsPair() || p.String() != "1.5;3" {
		t.Errorf("pair accessors wrong: %v", p)
	}
	if lo, hi := p.Bounds(); lo != 1.5 || hi != 3 {
		t.Errorf("pair Bounds = %v, %v", lo, hi)
	}
}

func TestValueApproxEqual(t *testing.T) {
	tests := []struct {
		a, b Value
		tol  float64
		want bool
	}{
		{Single(1), Single(1 + 1e-12), 1e-9, true},
		{Single(1), Single(1.1), 1e-9, false},
		{Single(1), Pair(1, 1), 1e-9, false},
		{Pair(1, 2), Pair(1, 2.0000000001), 1e-9, true},
		{Pair(1, 2), Pair(1, 3), 1e-9, false},
		{Single(math.NaN()), Single(math.NaN()), 0, true},
		{Single(math.NaN()), Single(0), 0, false},
	}
	for _, tt := range tests {
		if got := tt.a.ApproxEqual(tt.b, tt.tol); got != tt.want {
			t.Errorf("%v.ApproxEqual(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
