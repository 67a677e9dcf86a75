// Package ingest drives the per-company observation cycle: fetch,
// extract, normalize, diff against stored state, apply.
package ingest

import (
	"sort"

	"github.com/joblens/jobcorpus/internal/corpus"
)

// DiffKeys partitions one cycle's observed identity keys against the
// company's currently active keys. Every key lands in exactly one set;
// output order is sorted so results are deterministic.
func DiffKeys(observed map[string]corpus.NormalizedPosting, existing []string) corpus.Diff {
	existingSet := make(map[string]struct{}, len(existing))
	for _, k := range existing {
		existingSet[k] = struct{}{}
	}

	var d corpus.Diff
	for k := range observed {
		if _, ok := existingSet[k]; ok {
			d.ToRenew = append(d.ToRenew, k)
		} else {
			d.ToCreate = append(d.ToCreate, k)
		}
	}
	for _, k := range existing {
		if _, ok := observed[k]; !ok {
			d.ToClose = append(d.ToClose, k)
		}
	}

	sort.Strings(d.ToCreate)
	sort.Strings(d.ToRenew)
	sort.Strings(d.ToClose)
	return d
}
