package mathexpr

import (
	"strings"
	"sync"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "text fence", input: "```text\n2+2\n```", want: "4"},
		{name: "plain multiplication", input: "37593*67", want: "2518731"},
		{name: "expression in prose", input: "The answer is 10 + 5, please compute", want: "15"},
		{name: "untagged fence division", input: "```\n100/4\n```", want: "25.0"},
		{name: "clean number", input: "4", want: "4"},
		{name: "subtraction", input: "10-4", want: "6"},
		{name: "space between digits joins them", input: "1 2", want: "12"},
		{name: "decimal literal", input: "pi is roughly 3.14", want: "3.14"},
		{name: "caret is exponent", input: "2^10", want: "1024"},
		{name: "double star falls through unmatched", input: "5**2", want: "25"},
		{name: "fractional division", input: "7/2", want: "3.5"},
		{name: "language tagged fence", input: "```python\n6*7\n```", want: "42"},
		{name: "text fence wins over earlier fence", input: "```\nfoo\n``` then ```text\n9-3\n```", want: "6"},
		{name: "only first pair is used", input: "2+3*4", want: "5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.input); got != tt.want {
				t.Errorf("Evaluate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	inputs := []string{
		"no numbers here",
		"",
		"   ",
		"```\n```",
		"1/0",
		"8%0",
		"len(\"abc\")",
		"1 == 1",
		"x+1",
		"\"a\" + \"b\"",
		"[1, 2]",
		"+",
		"2+",
		"((1)",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			got := Evaluate(input)
			if !strings.HasPrefix(got, ErrorPrefix) {
				t.Errorf("Evaluate(%q) = %q, want prefix %q", input, got, ErrorPrefix)
			}
			if got == ErrorPrefix {
				t.Errorf("Evaluate(%q) returned an error without detail", input)
			}
		})
	}

	oversized := []struct {
		name  string
		input string
	}{
		{"deep nesting", strings.Repeat("(", 2000000) + "1" + strings.Repeat(")", 2000000)},
		{"nesting past limit", strings.Repeat("(", 1000) + "1" + strings.Repeat(")", 1000)},
		{"long unary chain", strings.Repeat("-", 70000) + "1"},
	}

	for _, tt := range oversized {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.input); !strings.HasPrefix(got, ErrorPrefix) {
				t.Errorf("Evaluate(%s) = %q, want prefix %q", tt.name, got, ErrorPrefix)
			}
		})
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	first := Evaluate("```text\n2+2\n```")
	if again := Evaluate(first); again != first {
		t.Errorf("re-evaluating %q gave %q", first, again)
	}
}

func TestEvaluate_Concurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Evaluate("37593*67"); got != "2518731" {
				t.Errorf("got %q", got)
			}
		}()
	}
	wg.Wait()
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```text\n 2+2 \n```", "2+2"},
		{"```text 3*3", "3*3"},
		{"before ```\n5-1\n``` after", "5-1"},
		{"```5-1", "5-1"},
		{"no fence", "no fence"},
	}

	for _, tt := range tests {
		if got := StripFences(tt.input); got != tt.want {
			t.Errorf("StripFences(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"compute 12 * 3 now", "12*3"},
		{"12\t+\n3", "12+3"},
		{"5**2", "5**2"},
		{"no digits", "nodigits"},
		{"1.5 apples", "1.5"},
	}

	for _, tt := range tests {
		if got := Extract(tt.input); got != tt.want {
			t.Errorf("Extract(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		expr      string
		want      string
		wantFloat bool
	}{
		{"2+2", "4", false},
		{"-5+3", "-2", false},
		{"(2+3)*4", "20", false},
		{"10/4", "2.5", true},
		{"100/4", "25.0", true},
		{"1.5*2", "3.0", true},
		{"2**-1", "0.5", true},
		{"17%5", "2", false},
		{"10**20/1", "1e+20", true},
		{"2**62", "4611686018427387904", false},
		{"2^62", "4611686018427387904", false},
		{"-3**3", "-27", false},
		{"7**0", "1", false},
		{"(-1)**63", "-1", false},
		{"2**64", "1.8446744073709552e+19", true},
		{"((((2+2))))", "4", false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, err := Compute(tt.expr)
			if err != nil {
				t.Fatalf("Compute(%q) returned error: %v", tt.expr, err)
			}
			if v.String() != tt.want {
				t.Errorf("Compute(%q) = %q, want %q", tt.expr, v.String(), tt.want)
			}
			if v.IsFloat() != tt.wantFloat {
				t.Errorf("Compute(%q).IsFloat() = %v, want %v", tt.expr, v.IsFloat(), tt.wantFloat)
			}
		})
	}
}

func TestCompute_IntegerOverflow(t *testing.T) {
	if _, err := Compute("9223372036854775807+1"); err == nil {
		t.Error("expected an error for int64 overflow")
	}
	v, err := Compute("9223372036854775806+1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != "9223372036854775807" {
		t.Errorf("got %q", v.String())
	}
}

func TestComputeNestingLimit(t *testing.T) {
	within := strings.Repeat("(", maxNestingDepth) + "1" + strings.Repeat(")", maxNestingDepth)
	if _, err := Compute(within); err != nil {
		t.Errorf("nesting at the limit should evaluate: %v", err)
	}
	beyond := "(" + within + ")"
	if _, err := Compute(beyond); err == nil {
		t.Error("nesting past the limit should fail")
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{IntValue(0), "0"},
		{IntValue(-12), "-12"},
		{FloatValue(0), "0.0"},
		{FloatValue(0.25), "0.25"},
		{FloatValue(0.00001), "1e-05"},
		{FloatValue(-3), "-3.0"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
