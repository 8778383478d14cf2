package helpers

import "unicode/utf8"

// Suggests the intended word for a misspelled configuration key. Only typos
// that are one edit away are caught: a missing character, an extra character,
// a changed character, or two adjacent characters swapped.
type TypoDetector struct {
	valid        map[string]bool
	oneCharTypos map[string]string
}

func MakeTypoDetector(valid []string) TypoDetector {
	detector := TypoDetector{
		valid:        make(map[string]bool, len(valid)),
		oneCharTypos: make(map[string]string),
	}

	// Add all combinations of each valid word with one character missing
	for _, correct := range valid {
		detector.valid[correct] = true
		if len(correct) > 3 {
			for i, ch := range correct {
				detector.oneCharTypos[correct[:i]+correct[i+utf8.RuneLen(ch):]] = correct
			}
		}
	}

	return detector
}

func (detector TypoDetector) MaybeCorrectTypo(typo string) (string, bool) {
	if detector.valid[typo] {
		return "", false
	}

	// Check for a single missing character
	if corrected, ok := detector.oneCharTypos[typo]; ok {
		return corrected, true
	}

	for i, ch := range typo {
		shorter := typo[:i] + typo[i+utf8.RuneLen(ch):]

		// Check for a single extra character
		if detector.valid[shorter] {
			return shorter, true
		}

		// Check for a single changed character
		if corrected, ok := detector.oneCharTypos[shorter]; ok && len(corrected) == len(typo) {
			return corrected, true
		}
	}

	// Check for two swapped characters
	bytes := []byte(typo)
	for i := 0; i+1 < len(bytes); i++ {
		if bytes[i] == bytes[i+1] {
			continue
		}
		bytes[i], bytes[i+1] = bytes[i+1], bytes[i]
		swapped := string(bytes)
		bytes[i], bytes[i+1] = bytes[i+1], bytes[i]
		if detector.valid[swapped] {
			return swapped, true
		}
	}

	return "", false
}
