package engine

import "strings"

// Voice catalog for Kokoro-82M.
// Source: https://huggingface.co/hexgrad/Kokoro-82M/blob/main/VOICES.md

// MaleVoices are the English male voices.
var MaleVoices = []string{
	"am_adam",    // American male, natural inflection
	"am_michael", // American male, deeper tones
	"bm_george",  // British male, classic accent
	"bm_lewis",   // British male, modern accent
}

// FemaleVoices are the English female voices.
var FemaleVoices = []string{
	"af_bella",    // American female, warm tones
	"af_nicole",   // American female, dynamic range
	"af_sarah",    // American female, clear articulation
	"af_sky",      // American female, youthful energy
	"bf_emma",     // British female, professional
	"bf_isabella", // British female, soft tones
}

// SpecialVoices holds the default blended voice (Bella + Sarah mix).
var SpecialVoices = []string{"af"}

// HindiMaleVoices are the Hindi male voices (requires the 'h' G2P backend).
var HindiMaleVoices = []string{"hm_omega", "hm_psi"}

// HindiFemaleVoices are the Hindi female voices.
var HindiFemaleVoices = []string{"hf_alpha", "hf_beta"}

// AllVoices lists every supported voice identifier.
var AllVoices = concatVoices(
	MaleVoices, FemaleVoices, SpecialVoices, HindiMaleVoices, HindiFemaleVoices,
)

func concatVoices(groups ...[]string) []string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	return all
}

// IsValidVoice reports whether id names a known voice.
func IsValidVoice(id string) bool {
	for _, v := range AllVoices {
		if v == id {
			return true
		}
	}
	return false
}

// ListVoices returns the catalog grouped by category, plus an "all"
// group.
func ListVoices() map[string][]string {
	return map[string][]string{
		"male":         MaleVoices,
		"female":       FemaleVoices,
		"special":      SpecialVoices,
		"hindi_male":   HindiMaleVoices,
		"hindi_female": HindiFemaleVoices,
		"all":          AllVoices,
	}
}

// LangCode returns the Kokoro language code for a voice based on its
// prefix: am_/af_ is American English 'a', bm_/bf_ British 'b',
// hm_/hf_ Hindi 'h', and so on for Japanese, Chinese, Spanish,
// Italian, Portuguese, and French voice families.
func LangCode(voice string) string {
	prefixes := map[string]string{
		"am_": "a", "af_": "a",
		"bm_": "b", "bf_": "b",
		"hm_": "h", "hf_": "h",
		"jm_": "j", "jf_": "j",
		"zm_": "z", "zf_": "z",
		"em_": "e", "ef_": "e",
		"im_": "i", "if_": "i",
		"pm_": "p", "pf_": "p",
		"fm_": "f", "ff_": "f",
	}
	for prefix, code := range prefixes {
		if strings.HasPrefix(voice, prefix) {
			return code
		}
	}
	// Non-standard voice names fall back to their first letter when
	// it is a known code; otherwise American English.
	if voice != "" && strings.ContainsRune("abhjzeipf", rune(voice[0])) {
		return voice[:1]
	}
	return "a"
}
