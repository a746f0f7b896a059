package reconcile

import "strings"

// Resolve maps the ambiguous identifier field of an expense row to a
// canonical tax id. Source files inconsistently fill the field with
// either the tax id or the shorter registry code, under varying
// punctuation and zero-padding, so resolution follows a fixed precedence
// and the first hit wins:
//
//  1. the normalized identifier, when it is a known canonical id;
//  2. registry-code lookup over, in order: the raw identifier trimmed,
//     the trimmed identifier with leading zeros stripped, the normalized
//     identifier, and the normalized identifier with leading zeros
//     stripped.
//
// The direct canonical match is tried first because it is the more
// authoritative form; the registry-code variants absorb the padding
// quirks observed in published files. Callers must treat a miss as a
// skippable record, never a failure.
func (ix *Index) Resolve(raw string) (string, bool) {
	clean := Normalize(raw)
	if clean != "" {
		if _, ok := ix.canonical[clean]; ok {
			return clean, true
		}
	}

	trimmed := strings.TrimSpace(raw)
	candidates := [4]string{
		trimmed,
		strings.TrimLeft(trimmed, "0"),
		clean,
		strings.TrimLeft(clean, "0"),
	}
	for _, cand := range candidates {
		if cand == "" {
			continue
		}
		if id, ok := ix.byRegistryCode[cand]; ok {
			return id, true
		}
	}
	return "", false
}
