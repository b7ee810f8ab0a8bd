package orchestrator

import "testing"

func TestCleanGeneratedCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "python fence", in: "```python\nx = 1\n```", want: "x = 1"},
		{name: "bare fence", in: "```\nprint('a')\n```", want: "print('a')"},
		{name: "surrounding whitespace", in: "\n\n  ```py\nresult_data = 2\nprint(2)\n```  \n", want: "result_data = 2\nprint(2)"},
		{name: "single line fence", in: "```print('x')```", want: "print('x')"},
		{name: "trailing fence only", in: "x = 1\n```", want: "x = 1"},
		{name: "no fence", in: "x = 1\nprint(x)", want: "x = 1\nprint(x)"},
		{name: "empty fence", in: "```", want: ""},
		{name: "empty", in: "   ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanGeneratedCode(tt.in); got != tt.want {
				t.Fatalf("CleanGeneratedCode(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanGeneratedCodeIsIdempotent(t *testing.T) {
	inputs := []string{
		"```python\nx = 1\n```",
		"x = 1\nprint(x)",
		"```\nprint('```')\n```",
		"  result_data = [1, 2]  ",
	}
	for _, in := range inputs {
		once := CleanGeneratedCode(in)
		if twice := CleanGeneratedCode(once); twice != once {
			t.Fatalf("not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}
