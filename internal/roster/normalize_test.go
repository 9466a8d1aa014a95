package roster

import "testing"

func TestRemoveDiacritics(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jiří", "Jiri"},
		{"Novák", "Novak"},
		{"plain", "plain"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := RemoveDiacritics(tc.in); got != tc.want {
			t.Errorf("RemoveDiacritics(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUserID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jiří Novák", "jiri.novak"},
		{"Anna-Marie  Dvořák", "anna.marie.dvorak"},
		{"42", "42"},
		{"  spaced  ", "spaced"},
		{"Émile Zola", "emile.zola"},
	}

	for _, tc := range tests {
		if got := UserID(tc.in); got != tc.want {
			t.Errorf("UserID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestUserID_Stable(t *testing.T) {
	// The same name must always map to the same identifier; enrollment
	// photos for one person accumulate under one key.
	if UserID("Jiří Novák") != UserID("jiri novak") {
		t.Error("expected diacritics and case to not affect the identifier")
	}
}
