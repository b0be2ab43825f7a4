package workflows

import (
	"regexp"
	"strings"
	"testing"
)

func TestGenerateTempPassword(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		pw := GenerateTempPassword()
		if len(pw) != tempPasswordLength {
			t.Fatalf("password %q length = %d, want %d", pw, len(pw), tempPasswordLength)
		}
		for _, ch := range pw {
			if !strings.ContainsRune(passwordAlphabet, ch) {
				t.Fatalf("password %q contains %q outside the alphabet", pw, ch)
			}
		}
		seen[pw] = true
	}
	if len(seen) < 45 {
		t.Errorf("only %d distinct passwords out of 50", len(seen))
	}
}

func TestMakeUniqueSlug(t *testing.T) {
	slugPattern := regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*-\d+$`)

	cases := map[string]string{
		"Sheffield Clothing Bank":  "sheffield-clothing-bank-",
		"  St. Mary's -- Closet  ": "st-mary-s-closet-",
		"Re:Wear!":                 "re-wear-",
	}
	for name, wantPrefix := range cases {
		slug := MakeUniqueSlug(name)
		if !strings.HasPrefix(slug, wantPrefix) {
			t.Errorf("MakeUniqueSlug(%q) = %q, want prefix %q", name, slug, wantPrefix)
		}
		if !slugPattern.MatchString(slug) {
			t.Errorf("slug %q has unexpected shape", slug)
		}
	}

	if MakeUniqueSlug("Charity A") == MakeUniqueSlug("Charity A") {
		t.Error("two slugs from the same name collided")
	}
}

func TestMakeUsername(t *testing.T) {
	u := makeUsername("jo.bloggs+test@b.org")
	if !strings.HasPrefix(u, "jobloggstest-") {
		t.Errorf("username = %q", u)
	}
	if !strings.HasPrefix(makeUsername("!!!@b.org"), "user-") {
		t.Errorf("fallback username = %q", makeUsername("!!!@b.org"))
	}
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Jo Anne Bloggs", "Charity", "Admin")
	if first != "Jo" || last != "Anne Bloggs" {
		t.Errorf("got %q %q", first, last)
	}
	first, last = splitName("", "Charity", "Admin")
	if first != "Charity" || last != "Admin" {
		t.Errorf("fallback got %q %q", first, last)
	}
	first, last = splitName("Cher", "Charity", "Admin")
	if first != "Cher" || last != "Admin" {
		t.Errorf("single name got %q %q", first, last)
	}
}
