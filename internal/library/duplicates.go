package library

import (
	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// Similarity is the normalized Levenshtein ratio of a and b, 1.0 meaning identical.
func Similarity(a, b string) float64 {
	return strutil.Similarity(a, b, metrics.NewLevenshtein())
}

// NearDuplicates compares every pair of file-derived keys and maps each key
// to the later keys judged similar. Artist|title keys need both halves
// above the cutoff; bare keys are compared whole. Keys of different shapes
// are never compared.
func (idx *Index) NearDuplicates() map[string][]string {
	keys := idx.Entries()

	dupes := make(map[string][]string)
	for i := 0; i < len(keys); i++ {
		a1, t1, pipe1 := textnorm.SplitKey(keys[i])
		for j := i + 1; j < len(keys); j++ {
			a2, t2, pipe2 := textnorm.SplitKey(keys[j])
			if pipe1 != pipe2 {
				continue
			}

			var similar bool
			if pipe1 {
				similar = Similarity(a1, a2) > constants.SimilarityCutoff && Similarity(t1, t2) > constants.SimilarityCutoff
			} else {
				similar = Similarity(keys[i], keys[j]) > constants.SimilarityCutoff
			}
			if similar {
				dupes[keys[i]] = append(dupes[keys[i]], keys[j])
			}
		}
	}
	return dupes
}
