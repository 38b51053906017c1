package model

import "strings"

// camelotWheel maps a normalized "<tonic> <mode>" key name to its Camelot
// wheel position. Minor keys sit on the A ring, major keys on the B ring.
var camelotWheel = map[string]string{
	"abmin": "1A", "g#min": "1A",
	"ebmin": "2A", "d#min": "2A",
	"bbmin": "3A", "a#min": "3A",
	"fmin":  "4A",
	"cmin":  "5A",
	"gmin":  "6A",
	"dmin":  "7A",
	"amin":  "8A",
	"emin":  "9A",
	"bmin":  "10A", "cbmin": "10A",
	"f#min": "11A", "gbmin": "11A",
	"dbmin": "12A", "c#min": "12A",

	"bmaj": "1B", "cbmaj": "1B",
	"f#maj": "2B", "gbmaj": "2B",
	"dbmaj": "3B", "c#maj": "3B",
	"abmaj": "4B", "g#maj": "4B",
	"ebmaj": "5B", "d#maj": "5B",
	"bbmaj": "6B", "a#maj": "6B",
	"fmaj":  "7B", "e#maj": "7B",
	"cmaj":  "8B",
	"gmaj":  "9B",
	"dmaj":  "10B",
	"amaj":  "11B",
	"emaj":  "12B",
}

var keyReplacer = strings.NewReplacer(
	"♯", "#",
	"♭", "b",
	"-", " ",
)

// CamelotKey converts a musical key as printed by the catalog ("A Minor",
// "F♯ Maj", "Gb min") into Camelot notation ("8A", "2B"). Returns "" when the
// key cannot be interpreted. The mapping is deterministic: enharmonic
// spellings resolve to the same wheel position.
func CamelotKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(keyReplacer.Replace(key)))
	if s == "" {
		return ""
	}

	// Already Camelot notation ("8a", "12b").
	if len(s) >= 2 && s[0] >= '0' && s[0] <= '9' {
		upper := strings.ToUpper(s)
		if strings.HasSuffix(upper, "A") || strings.HasSuffix(upper, "B") {
			return upper
		}
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}

	tonic := fields[0]
	mode := "maj"
	rest := strings.Join(fields[1:], "")
	switch {
	case strings.HasPrefix(rest, "min"), rest == "m", strings.HasSuffix(tonic, "m") && len(tonic) > 1 && rest == "":
		mode = "min"
	case strings.HasPrefix(rest, "maj"), rest == "":
		mode = "maj"
	default:
		return ""
	}
	tonic = strings.TrimSuffix(tonic, "m")

	return camelotWheel[tonic+mode]
}

// KeysEquivalent reports whether two raw key strings land on the same Camelot
// wheel position. Unparseable keys never match.
func KeysEquivalent(a, b string) bool {
	ca, cb := CamelotKey(a), CamelotKey(b)
	return ca != "" && ca == cb
}
