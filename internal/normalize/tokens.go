package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Model tokens are manufacturer part-number shapes: letter prefix plus
// digits ("DHP484Z", "GSB18V"), tried most-specific first.
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z]{2,5}\d{2,4}[A-Z0-9]{0,3})\b`),
	regexp.MustCompile(`\b([A-Z]{1,2}\d{3,4}[A-Z]{0,2})\b`),
	regexp.MustCompile(`\b(\d{3,4}[A-Z]{2})\b`),
}

var voltagePattern = regexp.MustCompile(`(?i)\b(10\.8|14\.4|12|18|20|36|40|54|110|230|240)\s*v(?:olt)?s?\b`)

// voltageLike filters voltage and battery tokens out of model candidates.
var voltageLike = regexp.MustCompile(`^(?:\d+(?:\.\d+)?)(?:V|AH|W)$`)

var bareUnitPattern = regexp.MustCompile(`(?i)\b(bare\s+unit|body\s+only|tool\s+only|bare)\b`)

var batterySpecPattern = regexp.MustCompile(`(?i)\b(\d)\s*x\s*(\d(?:\.\d)?)\s*ah\b`)

var kitHintPattern = regexp.MustCompile(`(?i)\b(kit|charger|carry\s+case|makpac|tstak|battery|batteries)\b`)

// ExtractModel returns the best-effort model token from a title, or "".
func ExtractModel(title string) string {
	upper := strings.ToUpper(title)
	for _, pattern := range modelPatterns {
		for _, match := range pattern.FindAllString(upper, -1) {
			if voltageLike.MatchString(match) {
				continue
			}
			return match
		}
	}
	return ""
}

// ExtractVoltage returns the nominal platform voltage from a title, or 0.
// Sub-volt platforms normalize to their marketing equivalents (10.8V tools
// are sold as 12V Max, 14.4V as 14V).
func ExtractVoltage(title string) int {
	match := voltagePattern.FindStringSubmatch(title)
	if match == nil {
		return 0
	}
	switch match[1] {
	case "10.8":
		return 12
	case "14.4":
		return 14
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return value
}

// ExtractKit classifies a title as a bare unit, a battery-counted kit
// ("2x5ah"), a generic kit, or unknown. Bare markers win over kit hints:
// "body only" listings routinely mention the absent charger.
func ExtractKit(title string) string {
	if bareUnitPattern.MatchString(title) {
		return "bare"
	}
	if match := batterySpecPattern.FindStringSubmatch(title); match != nil {
		ah := strings.TrimSuffix(match[2], ".0")
		return fmt.Sprintf("%sx%sah", match[1], ah)
	}
	if kitHintPattern.MatchString(title) {
		return "kit"
	}
	return ""
}

// VariantSignature combines voltage and kit classification into the
// signature that keeps distinct SKUs of one model apart.
func VariantSignature(voltage int, kit string) string {
	parts := make([]string, 0, 2)
	if voltage > 0 {
		parts = append(parts, fmt.Sprintf("%dv", voltage))
	}
	if kit != "" {
		parts = append(parts, kit)
	}
	return strings.Join(parts, "|")
}
