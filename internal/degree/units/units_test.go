package units

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3.00", "3"},
		{" 1.5 ", "1.5"},
		{"", "0"},
		{"three", "0"},
	}
	for _, tc := range cases {
		if got := Parse(tc.in).String(); got != tc.want {
			t.Fatalf("Parse(%q): want=%s got=%s", tc.in, tc.want, got)
		}
	}
}

func TestRemainingNeverNegative(t *testing.T) {
	if got := Remaining(New(3), New(4.5)); !got.IsZero() {
		t.Fatalf("Remaining: want=0 got=%s", got)
	}
	if got := Remaining(New(6), New(1.5)); !got.Equal(New(4.5)) {
		t.Fatalf("Remaining: want=4.5 got=%s", got)
	}
}

func TestSumIsExact(t *testing.T) {
	got := Sum(New(0.1), New(0.2), New(0.3))
	if !got.Equal(Parse("0.6")) {
		t.Fatalf("Sum: want=0.6 got=%s", got)
	}
}
