package app

import "testing"

func TestComposeCaption(t *testing.T) {
	tests := []struct {
		name     string
		caption  string
		hashtags []string
		want     string
	}{
		{"no hashtags", "fresh paint", nil, "fresh paint"},
		{"hashtags appended", "fresh paint", []string{"#art", "#wip"}, "fresh paint\n\n#art #wip"},
		{"missing hash prefilled", "fresh paint", []string{"art", "#wip"}, "fresh paint\n\n#art #wip"},
		{"empty caption", "", []string{"art"}, "#art"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := composeCaption(tt.caption, tt.hashtags); got != tt.want {
				t.Errorf("composeCaption(%q, %v) = %q, want %q", tt.caption, tt.hashtags, got, tt.want)
			}
		})
	}
}
