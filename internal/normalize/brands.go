package normalize

import (
	"regexp"
	"sort"
	"strings"
)

// brandAliases maps collapsed lowercase spellings seen across vendor sites
// to one canonical brand token. Vendors disagree on punctuation
// ("Black+Decker", "Black & Decker") and on rebrands (Hitachi became
// HiKOKI), so aliases cover every observed form.
var brandAliases = map[string]string{
	"makita":           "MAKITA",
	"dewalt":           "DEWALT",
	"de walt":          "DEWALT",
	"bosch":            "BOSCH",
	"milwaukee":        "MILWAUKEE",
	"einhell":          "EINHELL",
	"ryobi":            "RYOBI",
	"black decker":     "BLACK+DECKER",
	"black and decker": "BLACK+DECKER",
	"hikoki":           "HIKOKI",
	"hitachi":          "HIKOKI",
	"stanley":          "STANLEY",
	"stanley fatmax":   "STANLEY",
	"metabo":           "METABO",
	"titan":            "TITAN",
	"parkside":         "PARKSIDE",
	"festool":          "FESTOOL",
	"draper":           "DRAPER",
	"sealey":           "SEALEY",
	"worx":             "WORX",
	"trend":            "TREND",
	"karcher":          "KARCHER",
}

var collapsePattern = regexp.MustCompile(`[^a-z0-9]+`)

// orderedAliases holds alias phrases longest-first so multiword aliases win
// over their prefixes ("stanley fatmax" before "stanley").
var orderedAliases = func() []string {
	aliases := make([]string, 0, len(brandAliases))
	for alias := range brandAliases {
		aliases = append(aliases, alias)
	}
	sort.Slice(aliases, func(i, j int) bool {
		if len(aliases[i]) != len(aliases[j]) {
			return len(aliases[i]) > len(aliases[j])
		}
		return aliases[i] < aliases[j]
	})
	return aliases
}()

// CanonicalBrand finds the canonical brand token in a raw title. The second
// result reports whether the brand came from the vocabulary; when it did
// not, the first title token uppercased is returned as a degraded fallback
// so normalization always yields some brand key.
func CanonicalBrand(title string) (string, bool) {
	collapsed := " " + collapsePattern.ReplaceAllString(strings.ToLower(title), " ") + " "
	for _, alias := range orderedAliases {
		if strings.Contains(collapsed, " "+alias+" ") {
			return brandAliases[alias], true
		}
	}

	fields := strings.Fields(collapsed)
	if len(fields) == 0 {
		return "UNKNOWN", false
	}
	return strings.ToUpper(fields[0]), false
}
