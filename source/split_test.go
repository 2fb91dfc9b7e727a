package source_test

import (
	"errors"
	"slices"
	"testing"

	"tcss/source"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		segments []string
		names    []string
	}{
		{name: "plain", text: "color: red;", segments: []string{"color: red;"}},
		{name: "empty", text: "", segments: []string{""}},
		{
			name:     "markers",
			text:     "color: ${fg};\nbackground: ${ theme.bg-1 };\n",
			segments: []string{"color: ", ";\nbackground: ", ";\n"},
			names:    []string{"fg", "theme.bg-1"},
		},
		{
			name:     "adjacent",
			text:     "${a}${b}",
			segments: []string{"", "", ""},
			names:    []string{"a", "b"},
		},
		{name: "escape", text: "content: \"$${x}\";", segments: []string{"content: \"${x}\";"}},
		{name: "lone dollar", text: "content: \"$\";", segments: []string{"content: \"$\";"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segments, names, err := source.Split(tt.text)
			if err != nil {
				t.Fatalf("Split() error = %v", err)
			}
			if !slices.Equal(segments, tt.segments) {
				t.Errorf("segments = %q, want %q", segments, tt.segments)
			}
			if !slices.Equal(names, tt.names) {
				t.Errorf("names = %q, want %q", names, tt.names)
			}
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		text string
		want error
	}{
		{text: "color: ${fg;", want: source.ErrUnterminatedMarker},
		{text: "color: ${fg\n};", want: source.ErrUnterminatedMarker},
		{text: "color: ${};", want: source.ErrBadName},
		{text: "color: ${1fg};", want: source.ErrBadName},
		{text: "color: ${f g};", want: source.ErrBadName},
	}

	for _, tt := range tests {
		if _, _, err := source.Split(tt.text); !errors.Is(err, tt.want) {
			t.Errorf("Split(%q) error = %v, want %v", tt.text, err, tt.want)
		}
	}
}
