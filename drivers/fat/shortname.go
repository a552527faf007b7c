package fat

import (
	"fmt"
	"strconv"
	"strings"

	disko "github.com/nallik/vfat"
)

// extraShortNameChars is the symbol set, beyond A-Z and 0-9, that's legal in
// an 8.3 name.
const extraShortNameChars = "_^$~!#%&-{}()@'`"

// isLegalShortNameChar reports whether r may appear literally in a tidied
// 8.3 name component.
func isLegalShortNameChar(r rune) bool {
	if r >= 'A' && r <= 'Z' {
		return true
	}
	if r >= '0' && r <= '9' {
		return true
	}
	return strings.ContainsRune(extraShortNameChars, r)
}

// isSkipChar reports whether r is removed rather than replaced while tidying.
func isSkipChar(r rune) bool {
	return r == '.' || r == ' '
}

// tidy uppercases s, drops skip characters, and maps every other illegal
// character to '_'.
func tidy(s string) string {
	upper := strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if isSkipChar(r) {
			continue
		}
		if isLegalShortNameChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

// isClean reports whether, once uppercased, every rune of s is legal and no
// skip character appears.
func isClean(s string) bool {
	for _, r := range strings.ToUpper(s) {
		if isSkipChar(r) {
			return false
		}
		if !isLegalShortNameChar(r) {
			return false
		}
	}
	return true
}

// ShortNameGenerator derives unique, legal 8.3 names from arbitrary long
// names, given the set of short names already live in a directory.
type ShortNameGenerator struct{}

// NewShortNameGenerator constructs a ShortNameGenerator. It carries no state;
// every call to Generate is independent.
func NewShortNameGenerator() ShortNameGenerator {
	return ShortNameGenerator{}
}

// Generate derives a legal, unique 8.3 name for longName. used is the set of
// short names already taken in the containing directory, uppercase; it is
// read only and never mutated.
func (ShortNameGenerator) Generate(longName string, used map[string]struct{}) (string, error) {
	namePortion := longName
	extPortion := ""
	if idx := strings.LastIndex(longName, "."); idx >= 0 {
		namePortion = longName[:idx]
		extPortion = longName[idx+1:]
	}

	forceSuffix := !isClean(namePortion) || !isClean(extPortion)

	base := tidy(namePortion)
	ext := tidy(extPortion)
	if len(ext) > 3 {
		ext = ext[:3]
	}

	candidate := joinShortName(base, ext)
	if !forceSuffix && len(base) <= 8 {
		if _, taken := used[strings.ToUpper(candidate)]; !taken {
			return candidate, nil
		}
	}

	for i := 1; i < 99999; i++ {
		tail := "~" + strconv.Itoa(i)
		prefixLen := len(base)
		if maxPrefix := 8 - len(tail); maxPrefix < prefixLen {
			prefixLen = maxPrefix
		}
		if prefixLen < 0 {
			prefixLen = 0
		}
		candidate = joinShortName(base[:prefixLen]+tail, ext)
		if _, taken := used[strings.ToUpper(candidate)]; !taken {
			return candidate, nil
		}
	}

	return "", disko.ErrShortNameExhausted.WithMessage(
		fmt.Sprintf("no unique numeric tail available for %q", longName))
}

func joinShortName(base, ext string) string {
	if ext == "" {
		return base
	}
	return base + "." + ext
}

// PackShortName11 converts a "BASE" or "BASE.EXT" short name into the raw
// 11-byte space-padded form used for checksum computation and on-disk
// storage.
func PackShortName11(shortName string) [11]byte {
	base := shortName
	ext := ""
	if idx := strings.LastIndex(shortName, "."); idx >= 0 {
		base = shortName[:idx]
		ext = shortName[idx+1:]
	}

	var out [11]byte
	for i := range out {
		out[i] = ' '
	}
	copy(out[0:8], base)
	copy(out[8:11], ext)
	return out
}
