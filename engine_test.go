package protsplit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/dataset"
	"github.com/hupe1980/protsplit/record"
	"github.com/hupe1980/protsplit/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func healthyInput() dataset.Input {
	return testutil.Input(testutil.NewRNG(1), 8,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 120, Unlabeled: 10, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 80, Negatives: 90, Unlabeled: 5, Prefix: "b-"},
		testutil.StratumSpec{Name: "C", Positives: 60, Negatives: 70, Prefix: "c-"},
	)
}

func TestSplitFirstAttempt(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}
	eng, err := New(mem, WithMetricsCollector(metrics))
	require.NoError(t, err)

	res, err := eng.Split(ctx, "asthma", "splits/asthma.json", healthyInput(), 42)
	require.NoError(t, err)

	assert.False(t, res.Loaded)
	assert.True(t, res.NamesWritten)
	require.Len(t, res.Attempts, 1)
	assert.Equal(t, int64(42), res.Attempts[0].Seed)

	for _, name := range []string{"A", "B", "C"} {
		require.Contains(t, res.Test, name)
		n := 0
		for _, l := range res.Test[name].Labels {
			n += l
		}
		assert.Greater(t, n, 5, name)
		assert.Equal(t, res.Test[name].Labels, res.TestLabels[name])
	}
	assert.NotContains(t, res.Test, dataset.Global)

	for _, p := range []string{"splits/asthma.json", "splits/asthma_name.json"} {
		ok, err := blobstore.Exists(ctx, mem, p)
		require.NoError(t, err)
		assert.True(t, ok, p)
	}

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.SplitCount)
	assert.Equal(t, int64(1), stats.AttemptCount)
	assert.Equal(t, int64(0), stats.SplitErrors)
}

func TestSplitReloadIgnoresSeed(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	eng, err := New(mem)
	require.NoError(t, err)

	first, err := eng.Split(ctx, "asthma", "asthma.json", healthyInput(), 1)
	require.NoError(t, err)

	second, err := eng.Split(ctx, "asthma", "asthma.json", healthyInput(), 999)
	require.NoError(t, err)

	assert.True(t, second.Loaded)
	assert.Empty(t, second.Attempts)
	assert.False(t, second.NamesWritten)
	assert.Equal(t, first.Partition, second.Partition)
	assert.Equal(t, first.Train, second.Train)
	assert.Equal(t, first.Test, second.Test)
	assert.Equal(t, first.TestLabels, second.TestLabels)

	// The stored names are the ones of the first run.
	names, ok, err := record.NewStore(mem, nil).LoadNames(ctx, "asthma.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Names, names)
}

func TestSplitExistingRecordIsUsed(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	in := healthyInput()

	ex, err := dataset.Collect(in)
	require.NoError(t, err)
	rec := &record.SplitRecord{
		PosTrain: seq(0, ex.Positive.Len()-10),
		PosTest:  seq(ex.Positive.Len()-10, ex.Positive.Len()),
		NegTrain: seq(0, ex.Negative.Len()-10),
		NegTest:  seq(ex.Negative.Len()-10, ex.Negative.Len()),
	}
	require.NoError(t, record.NewStore(mem, nil).SaveSplit(ctx, "d.json", rec))

	eng, err := New(mem)
	require.NoError(t, err)
	res, err := eng.Split(ctx, "d", "d.json", in, 5)
	require.NoError(t, err)

	assert.True(t, res.Loaded)
	assert.Equal(t, rec.Partition(), res.Partition)
	assert.Equal(t, len(rec.PosTrain)+len(rec.NegTrain), res.Train.Len())
}

func TestSplitCorruptRecord(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	rec := &record.SplitRecord{PosTrain: []int{100000}}
	require.NoError(t, record.NewStore(mem, nil).SaveSplit(ctx, "d.json", rec))

	eng, err := New(mem)
	require.NoError(t, err)
	_, err = eng.Split(ctx, "d", "d.json", healthyInput(), 5)
	assert.ErrorIs(t, err, ErrCorruptRecord)
}

func TestSplitExhausted(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	metrics := &BasicMetricsCollector{}
	eng, err := New(mem, WithMetricsCollector(metrics))
	require.NoError(t, err)

	in := testutil.Input(testutil.NewRNG(2), 4,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 100, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 100, Negatives: 100, Prefix: "b-"},
		testutil.StratumSpec{Name: "C", Positives: 3, Negatives: 50, Prefix: "c-"},
	)
	res, err := eng.Split(ctx, "asthma", "asthma.json", in, 1)
	assert.Nil(t, res)

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "asthma", cfgErr.Dataset)
	assert.Equal(t, []string{"C"}, cfgErr.Short)
	assert.Equal(t, 10, cfgErr.Attempts)
	assert.ErrorIs(t, err, ErrSplitExhausted)

	ok, err := blobstore.Exists(ctx, mem, "asthma.json")
	require.NoError(t, err)
	assert.False(t, ok)

	stats := metrics.GetStats()
	assert.Equal(t, int64(10), stats.AttemptFailures)
	assert.Equal(t, int64(1), stats.SplitErrors)
}

func TestSplitNegativeOnlyStratum(t *testing.T) {
	ctx := context.Background()
	eng, err := New(blobstore.NewMemoryStore())
	require.NoError(t, err)

	in := testutil.Input(testutil.NewRNG(3), 4,
		testutil.StratumSpec{Name: "A", Positives: 100, Negatives: 100, Prefix: "a-"},
		testutil.StratumSpec{Name: "D", Negatives: 50, Prefix: "d-"},
	)
	res, err := eng.Split(ctx, "asthma", "asthma.json", in, 1)
	require.NoError(t, err)

	assert.NotContains(t, res.Test, "D")
	require.NotEmpty(t, res.TestLabels["D"])
	for _, l := range res.TestLabels["D"] {
		assert.Equal(t, 0, l)
	}
	found := false
	for _, g := range res.Names.NegTest {
		if len(g) > 2 && g[:2] == "d-" {
			found = true
		}
	}
	assert.True(t, found, "negative-only stratum groups missing from test names")
}

// crossPoolInput relabels some negatives of B as proteins that are positives
// in A, so one group lands in both pools.
func crossPoolInput() dataset.Input {
	in := testutil.Input(testutil.NewRNG(4), 4,
		testutil.StratumSpec{Name: "A", Positives: 40, Negatives: 40, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 40, Negatives: 40, Prefix: "b-"},
	)
	rename := make(map[string]string)
	for j := 0; j < 30; j++ {
		rename[fmt.Sprintf("b-N%03d", j)] = fmt.Sprintf("a-P%03d", j)
	}
	for _, ids := range [][]string{in.Proteins["B"], in.Negatives["B"]} {
		for i, id := range ids {
			if to, ok := rename[id]; ok {
				ids[i] = to
			}
		}
	}
	return in
}

func TestSplitGroupLeakIsNotPersisted(t *testing.T) {
	ctx := context.Background()
	mem := blobstore.NewMemoryStore()
	eng, err := New(mem)
	require.NoError(t, err)

	for _, seed := range []int64{1, 77} {
		_, err = eng.Split(ctx, "d", "d.json", crossPoolInput(), seed)
		require.ErrorIs(t, err, ErrGroupLeak, "seed %d", seed)

		for _, p := range []string{"d.json", "d_name.json"} {
			ok, err := blobstore.Exists(ctx, mem, p)
			require.NoError(t, err)
			assert.False(t, ok, p)
		}
	}
}

func TestSplitStructureError(t *testing.T) {
	in := healthyInput()
	in.Rows["A"] = in.Rows["A"][1:]

	eng, err := New(blobstore.NewMemoryStore())
	require.NoError(t, err)
	_, err = eng.Split(context.Background(), "d", "d.json", in, 1)
	assert.ErrorIs(t, err, ErrStructure)
}

func TestNewInvalidOptions(t *testing.T) {
	_, err := New(blobstore.NewMemoryStore(), WithTestSize(0.7))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(blobstore.NewMemoryStore(), WithMaxAttempts(0))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func seq(from, to int) []int {
	out := make([]int, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, i)
	}
	return out
}
