package fingerprint

// NormalizeEAN validates a scraped EAN/GTIN and returns its digit form, or
// "" when the value fails the length or checksum sanity checks. Vendors
// occasionally publish truncated or mistyped codes; trusting one would
// create a false global identity, so invalid codes fall through to the next
// tier instead.
func NormalizeEAN(raw string) string {
	digits := make([]byte, 0, 14)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, c)
		case c == ' ' || c == '-':
			// separator noise
		default:
			return ""
		}
	}

	switch len(digits) {
	case 8, 12, 13, 14:
	default:
		return ""
	}

	if !gtinChecksumValid(digits) {
		return ""
	}
	return string(digits)
}

// gtinChecksumValid applies the GTIN mod-10 check: weights 3 and 1
// alternate from the rightmost digit (the check digit has weight 1).
func gtinChecksumValid(digits []byte) bool {
	var sum int
	weight := 3
	for i := len(digits) - 2; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		if weight == 3 {
			weight = 1
		} else {
			weight = 3
		}
	}
	check := (10 - sum%10) % 10
	return check == int(digits[len(digits)-1]-'0')
}
