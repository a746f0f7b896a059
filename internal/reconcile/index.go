package reconcile

import "strings"

// Entry is the slice of an operator row the index needs: the canonical
// tax id and the optional registry code it can be referenced by.
type Entry struct {
	TaxID        string
	RegistryCode string
}

// Index is the in-memory lookup built from the persisted operator table
// once per ingestion run. It is read-only after Build and safe to share
// across goroutines.
type Index struct {
	byRegistryCode map[string]string
	canonical      map[string]struct{}
}

// BuildIndex constructs the registry index from persisted operators.
// Registry codes are trimmed before indexing; duplicate codes are
// last-write-wins since operators are deduplicated upstream. Every
// operator contributes its tax id to the canonical set regardless of
// whether it carries a registry code.
func BuildIndex(entries []Entry) *Index {
	ix := &Index{
		byRegistryCode: make(map[string]string, len(entries)),
		canonical:      make(map[string]struct{}, len(entries)),
	}
	for _, e := range entries {
		ix.canonical[e.TaxID] = struct{}{}
		code := strings.TrimSpace(e.RegistryCode)
		if code != "" {
			ix.byRegistryCode[code] = e.TaxID
		}
	}
	return ix
}

// Operators returns the number of distinct canonical ids indexed.
func (ix *Index) Operators() int { return len(ix.canonical) }

// RegistryCodes returns the number of registry codes indexed.
func (ix *Index) RegistryCodes() int { return len(ix.byRegistryCode) }
