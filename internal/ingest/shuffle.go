package ingest

import (
	"math/rand"

	"imageset/internal/manifest"
)

// ShufflePairs reorders pairs in place with a deterministic seed, so two
// runs over the same input produce the same manifest order.
func ShufflePairs(pairs []manifest.Pair, seed int64) {
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
}
