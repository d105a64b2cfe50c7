package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	cases := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"YES", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"No", true, false},
		{"off", true, false},
		{"", true, true},
		{"", false, false},
		{"garbage", true, true},
		{"garbage", false, false},
		{" true ", false, true},
	}
	for _, c := range cases {
		t.Setenv("PANDORA_TEST_BOOL", c.value)
		if got := ParseBoolEnv("PANDORA_TEST_BOOL", c.def); got != c.want {
			t.Errorf("value %q default %v: got %v, want %v", c.value, c.def, got, c.want)
		}
	}
}
