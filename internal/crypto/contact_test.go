package crypto

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct{ in, want string }{
		{"(11) 98888-0001", "11988880001"},
		{"+55 11 98888-0001", "+5511988880001"},
		{" 11 2345 6789 ", "1123456789"},
		{"", ""},
		{"abc", ""},
	}
	for _, c := range cases {
		if got := NormalizePhone(c.in); got != c.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestContactHash(t *testing.T) {
	a := ContactHash("11988880001")
	b := ContactHash("11988880001")
	c := ContactHash("11988880002")
	if a != b {
		t.Error("same input must hash equal")
	}
	if a == c {
		t.Error("different inputs must hash different")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}
