package s1_processing

import "github.com/wonny/marketpipe/internal/contracts"

// SelectBestSource picks the dataset with the highest quality score.
// Candidates are visited in order (configured sources first), so ties go to the
// first seen. A score must be strictly above zero; otherwise ok is false.
func SelectBestSource(datasets map[string]*contracts.SourcedDataset, order []string) (best string, ok bool) {
	bestScore := 0.0
	for _, id := range contracts.Ordered(order, datasets) {
		ds := datasets[id]
		if ds == nil {
			continue
		}
		if ds.QualityScore > bestScore {
			bestScore = ds.QualityScore
			best = id
			ok = true
		}
	}
	return best, ok
}
