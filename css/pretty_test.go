package css_test

import (
	"testing"

	"tcss/css"
)

func TestPretty(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "reindents nested blocks",
			in:   ".a {\n\t\t\t& {\n color: red;\n\t}\n}",
			want: ".a {\n  & {\n    color: red;\n  }\n}\n",
		},
		{
			name: "drops blank lines",
			in:   "\n\n   \n.a {\n\n\n  color: red;\n\n}\n\n",
			want: ".a {\n  color: red;\n}\n",
		},
		{
			name: "opening brace always ends a line",
			in:   "@media (x) { .a { color: red; } }",
			want: "@media (x) {\n  .a {\n    color: red;\n  }\n}\n",
		},
		{
			name: "unbalanced closing brace does not go negative",
			in:   "}\na;",
			want: "}\na;",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := css.Pretty(tt.in)
			if got != tt.want {
				t.Errorf("Pretty() = %q, want %q", got, tt.want)
			}
			if again := css.Pretty(got); again != got {
				t.Errorf("Pretty() is not idempotent: %q -> %q", got, again)
			}
		})
	}
}
