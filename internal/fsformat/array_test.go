package fsformat

import "testing"

func TestRoundAlwaysAdvances(t *testing.T) {
	cases := []struct {
		x, n, want uint64
	}{
		{0, 16, 16},
		{16, 16, 32},
		{1, 16, 16},
		{15, 16, 16},
		{0x100, 0x100, 0x200},
	}
	for _, c := range cases {
		got := Round(c.x, c.n)
		if got != c.want {
			t.Errorf("Round(%#x, %#x) = %#x, want %#x", c.x, c.n, got, c.want)
		}
		if got <= c.x {
			t.Errorf("Round(%#x, %#x) = %#x did not advance", c.x, c.n, got)
		}
	}
}

func TestArrayEqualityByOffsetOnly(t *testing.T) {
	a := Array{Offset: 10, Length: 5}
	b := Array{Offset: 10, Length: 99}
	if !a.Equal(b) {
		t.Fatalf("expected equal by offset, got a=%+v b=%+v", a, b)
	}
	if !a.Less(Array{Offset: 11}) {
		t.Fatalf("expected a < {offset:11}")
	}
}

func TestArrayOverlaps(t *testing.T) {
	a := Array{Offset: 0, Length: 10}
	b := Array{Offset: 5, Length: 10}
	c := Array{Offset: 10, Length: 10}
	if !a.Overlaps(b) {
		t.Fatalf("expected overlap")
	}
	if a.Overlaps(c) {
		t.Fatalf("adjacent ranges must not overlap")
	}
}
