package split

import "github.com/hupe1980/protsplit/dataset"

// Partition holds the accepted fold assignment as indices into the positive
// and negative pools.
type Partition struct {
	PosTrain []int
	PosTest  []int
	NegTrain []int
	NegTest  []int
}

// TestPositiveCounts returns the number of positive test rows per stratum.
func (p *Partition) TestPositiveCounts(ex *dataset.Examples) map[string]int {
	return countByStratum(ex.Positive.Strata, p.PosTest)
}

// TrainPositiveCounts returns the number of positive training rows per stratum.
func (p *Partition) TrainPositiveCounts(ex *dataset.Examples) map[string]int {
	return countByStratum(ex.Positive.Strata, p.PosTrain)
}

func countByStratum(strata []string, idx []int) map[string]int {
	counts := make(map[string]int)
	for _, i := range idx {
		counts[strata[i]]++
	}
	return counts
}
