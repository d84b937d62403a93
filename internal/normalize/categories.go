package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"tooltally/internal/textutil"
)

// familyRule maps vendor category strings and title keywords to one
// umbrella category. Order matters: specific tool families are tested
// before broad buckets so "cordless combi drill" lands in Combi Drills, not
// Drills.
type familyRule struct {
	name     string
	patterns []*regexp.Regexp
}

func family(name string, patterns ...string) familyRule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, regexp.MustCompile(pattern))
	}
	return familyRule{name: name, patterns: compiled}
}

var familyRules = []familyRule{
	family("Impact Wrenches", `impact\s+wrench`),
	family("Impact Drivers", `impact\s+driver`, `\bdtd\b`, `\bdcf8\d{2}\b`),
	family("SDS Drills", `\bsds\b`, `rotary\s+hammer`, `\bdhr\b`, `\bdch\b`),
	family("Combi Drills", `combi\s+drill`, `hammer\s+drill`, `percussion\s+drill`, `\bdhp\b`, `\bdcd\b`, `\bgsb\b`),
	family("Drills", `\bdrill\b`, `drill\s+driver`),
	family("Angle Grinders", `angle\s+grinder`, `\bgrinder\b`, `\bdga\b`, `\bgws\b`),
	family("Circular Saws", `circular\s+saw`, `plunge\s+saw`, `\bdhs\b`, `\bdcs5\d{2}\b`),
	family("Jigsaws", `\bjig\s*saw\b`),
	family("Mitre Saws", `mitre\s+saw`, `miter\s+saw`),
	family("Recip Saws", `reciprocating\s+saw`, `\brecip\b`, `sabre\s+saw`, `\bdjr\b`),
	family("Multi Tools", `multi[-\s]?tool`, `oscillating\s+tool`),
	family("Sanders", `sande?r\b`, `random\s+orbit`, `\bbo\d{3}\b`),
	family("Routers & Trimmers", `\brouter\b`, `laminate\s+trimmer`, `trim\s*router`),
	family("Planers", `\bplaner\b`),
	family("Heat Guns", `heat\s+gun`),
	family("Nailers", `\bnailer\b`, `finish\s*nailer`, `brad\s*nailer`),
	family("Staplers", `\bstapler\b`),
	family("Batteries & Chargers", `\bbattery\b`, `\bbatteries\b`, `\bcharger\b`, `\bpowerstack\b`),
	family("Lighting & Torches", `\bwork\s*light\b`, `\btorch\b`, `\bsite\s*light\b`),
	family("Vacuums & Dust Extraction", `\bvacuum\b`, `dust\s+extract`, `\bextractor\b`),
	family("Hand Tools", `\bhand\s*tool\b`, `\bscrewdriver\b`, `\bhammer\b`, `\bchisel\b`, `\bspanner\b`, `\bplier`),
	family("Accessories", `\baccessor`, `\bblade\b`, `\bbit\s+set\b`, `\bdisc\b`, `\bholesaw\b`),
}

var titleCaser = cases.Title(language.BritishEnglish)

// CanonicalCategory maps a vendor category string plus the listing title to
// an umbrella category. The boolean reports whether a family rule matched;
// otherwise the cleaned vendor string itself becomes the category name so an
// unmapped listing still files somewhere deterministic.
func CanonicalCategory(vendorCategory, title string) (string, bool) {
	haystack := strings.ToLower(textutil.CollapseSpaces(vendorCategory + " " + title))
	for _, rule := range familyRules {
		for _, pattern := range rule.patterns {
			if pattern.MatchString(haystack) {
				return rule.name, true
			}
		}
	}

	cleaned := textutil.CollapseSpaces(vendorCategory)
	if cleaned == "" {
		return "Uncategorised", false
	}
	return titleCaser.String(strings.ToLower(cleaned)), false
}
