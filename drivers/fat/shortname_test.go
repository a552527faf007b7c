package fat

import "testing"

func TestTidy(t *testing.T) {
	tests := []struct {
		Input  string
		Expect string
	}{
		{"README", "README"},
		{"readme", "README"},
		{"my file", "MYFILE"},
		{"a.b.c", "ABC"},
		{"résumé", "R_SUM_"},
	}

	for _, test := range tests {
		if got := tidy(test.Input); got != test.Expect {
			t.Errorf("tidy(%q) = %q, want %q", test.Input, got, test.Expect)
		}
	}
}

func TestIsClean(t *testing.T) {
	tests := []struct {
		Input  string
		Expect bool
	}{
		{"README", true},
		{"readme", true},
		{"my file", false},
		{"résumé", false},
		{"A_B-C", true},
	}

	for _, test := range tests {
		if got := isClean(test.Input); got != test.Expect {
			t.Errorf("isClean(%q) = %v, want %v", test.Input, got, test.Expect)
		}
	}
}

func TestShortNameGenerateDirectHit(t *testing.T) {
	generator := NewShortNameGenerator()
	name, err := generator.Generate("readme.txt", map[string]struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if name != "README.TXT" {
		t.Errorf("Generate() = %q, want README.TXT", name)
	}
}

func TestShortNameGenerateLongNameGetsNumericTail(t *testing.T) {
	generator := NewShortNameGenerator()
	name, err := generator.Generate("This Is A Long Filename.docx", map[string]struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if name != "THISIS~1.DOC" {
		t.Errorf("Generate() = %q, want THISIS~1.DOC", name)
	}
}

func TestShortNameGenerateCollisionBumpsTail(t *testing.T) {
	generator := NewShortNameGenerator()
	used := map[string]struct{}{"THISIS~1.DOC": {}}
	name, err := generator.Generate("This Is A Long Filename.docx", used)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if name != "THISIS~2.DOC" {
		t.Errorf("Generate() = %q, want THISIS~2.DOC", name)
	}
}

// TestShortNameGenerateUncleanNameForcesTail exercises scenario S1: a name
// that's short enough to fit in 8.3 unmodified, but contains illegal
// characters, still gets a numeric tail rather than a bare truncation.
func TestShortNameGenerateUncleanNameForcesTail(t *testing.T) {
	generator := NewShortNameGenerator()
	name, err := generator.Generate("My Résumé.docx", map[string]struct{}{})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if name != "MYR_SU~1.DOC" {
		t.Errorf("Generate() = %q, want MYR_SU~1.DOC", name)
	}
}

// TestShortNameGenerateExhausted pre-fills every candidate the generator
// could produce for a one-letter base name -- the direct hit plus every
// numeric tail 1..99998 -- and confirms it gives up with
// ErrShortNameExhausted rather than returning a colliding name.
func TestShortNameGenerateExhausted(t *testing.T) {
	used := map[string]struct{}{"A.TXT": {}}
	for i := 1; i < 99999; i++ {
		used[joinShortName("A~"+itoaBase10(i), "TXT")] = struct{}{}
	}

	generator := NewShortNameGenerator()
	_, err := generator.Generate("a.txt", used)
	if err == nil {
		t.Fatal("expected ErrShortNameExhausted, got nil")
	}
}

func itoaBase10(n int) string {
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func TestPackShortName11(t *testing.T) {
	got := PackShortName11("README.TXT")
	want := [11]byte{'R', 'E', 'A', 'D', 'M', 'E', ' ', ' ', 'T', 'X', 'T'}
	if got != want {
		t.Errorf("PackShortName11() = %v, want %v", got, want)
	}
}
