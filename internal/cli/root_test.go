package cli

import "testing"

func TestNormalizeTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09:00", "09:00", false},
		{"9:00", "09:00", false},
		{"9:5", "09:05", false},
		{"23:59", "23:59", false},
		{"0:00", "00:00", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"12", "", true},
		{"-1:30", "", true},
	}

	for _, tc := range cases {
		got, err := normalizeTimeOfDay(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
