package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// FoldEqual compares two names under Unicode case folding.
func FoldEqual(a, b string) bool {
	return cases.Fold().String(a) == cases.Fold().String(b)
}

// FoldContains reports whether needle occurs in haystack under Unicode case
// folding. Used for substring search over snapshot documents.
func FoldContains(haystack, needle string) bool {
	return strings.Contains(cases.Fold().String(haystack), cases.Fold().String(needle))
}

// ShowNameToID resolves a show title to its id over a loaded show list.
func ShowNameToID(shows []Show, name string) (int, error) {
	for _, s := range shows {
		if FoldEqual(s.Title, name) {
			return s.ID, nil
		}
	}
	return 0, fmt.Errorf("show %q: %w", name, ErrNotFound)
}

// BohneNameToID resolves a Bohne name to its id over a loaded Bohnen list.
func BohneNameToID(bohnen []Bohne, name string) (int, error) {
	for _, b := range bohnen {
		if FoldEqual(b.Name, name) {
			return b.ID, nil
		}
	}
	return 0, fmt.Errorf("bohne %q: %w", name, ErrNotFound)
}
