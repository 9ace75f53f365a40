package service

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pearl Necklace", "pearl-necklace"},
		{"  Gold & Silver Ring  ", "gold-silver-ring"},
		{"Édition Spéciale", "édition-spéciale"},
		{"Multiple   Spaces", "multiple-spaces"},
		{"trailing-", "trailing"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Fatalf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
