package reconcile

// CanonicalWidth is the fixed width of a canonical operator tax id.
const CanonicalWidth = 14

// Normalize canonicalizes a raw operator identifier. Every non-digit
// character is stripped and the remaining digits are left-padded with
// zeros to CanonicalWidth. An input with no digits at all yields the
// empty string, which never passes IsCanonical.
//
// Normalize is pure and never fails; callers decide validity via
// IsCanonical.
func Normalize(raw string) string {
	digits := make([]byte, 0, CanonicalWidth)
	for i := 0; i < len(raw); i++ {
		if raw[i] >= '0' && raw[i] <= '9' {
			digits = append(digits, raw[i])
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) >= CanonicalWidth {
		return string(digits)
	}
	padded := make([]byte, CanonicalWidth)
	pad := CanonicalWidth - len(digits)
	for i := 0; i < pad; i++ {
		padded[i] = '0'
	}
	copy(padded[pad:], digits)
	return string(padded)
}

// IsCanonical reports whether id is a usable canonical tax id: exactly
// CanonicalWidth digits with at least one non-zero. An all-zero id is the
// padding of an empty value and identifies nothing.
func IsCanonical(id string) bool {
	if len(id) != CanonicalWidth {
		return false
	}
	nonZero := false
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
		if id[i] != '0' {
			nonZero = true
		}
	}
	return nonZero
}
