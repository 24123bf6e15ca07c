package shell

import "testing"

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		flags    []string
		expected []string
	}{
		{
			name:     "bundled short flags",
			input:    []string{"-la", "dir"},
			flags:    []string{"l", "a"},
			expected: []string{"dir"},
		},
		{
			name:     "long flag",
			input:    []string{"--all", "x", "y"},
			flags:    []string{"all"},
			expected: []string{"x", "y"},
		},
		{
			name:     "bare dash is a parameter",
			input:    []string{"-", "-n"},
			flags:    []string{"n"},
			expected: []string{"-"},
		},
		{
			name:     "no flags",
			input:    []string{"a", "b"},
			expected: []string{"a", "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, params := ParseArgs(tt.input)
			if len(opts) != len(tt.flags) {
				t.Errorf("expected %d flags got %v", len(tt.flags), opts)
			}
			for _, f := range tt.flags {
				if !opts.Has(f) {
					t.Errorf("expected flag %q in %v", f, opts)
				}
			}
			if !equalStringSlices(params, tt.expected) {
				t.Errorf("expected params %v got %v", tt.expected, params)
			}
		})
	}
}

func TestScanArgs(t *testing.T) {
	tests := []struct {
		name   string
		input  []string
		valued string
		flag   string
		value  string
		params []string
	}{
		{name: "separate value", input: []string{"-n", "5", "f"}, valued: "n", flag: "n", value: "5", params: []string{"f"}},
		{name: "attached value", input: []string{"-n5", "f"}, valued: "n", flag: "n", value: "5", params: []string{"f"}},
		{name: "value after bundle", input: []string{"-in3", "pat"}, valued: "n", flag: "n", value: "3", params: []string{"pat"}},
		{name: "delimiter", input: []string{"-d", ",", "-f", "2"}, valued: "df", flag: "d", value: ",", params: []string{}},
		{name: "missing value", input: []string{"-f"}, valued: "f", flag: "f", value: "", params: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, vals, params := ScanArgs(tt.input, tt.valued)
			if !opts.Has(tt.flag) {
				t.Errorf("expected flag %q set", tt.flag)
			}
			got, _ := vals.Last(tt.flag)
			if got != tt.value {
				t.Errorf("expected value %q got %q", tt.value, got)
			}
			if !equalStringSlices(params, tt.params) {
				t.Errorf("expected params %v got %v", tt.params, params)
			}
		})
	}
}
