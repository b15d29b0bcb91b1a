package protsplit_test

import (
	"context"
	"fmt"

	"github.com/hupe1980/protsplit"
	"github.com/hupe1980/protsplit/blobstore"
	"github.com/hupe1980/protsplit/testutil"
)

func Example() {
	ctx := context.Background()
	in := testutil.Input(testutil.NewRNG(1), 4,
		testutil.StratumSpec{Name: "A", Positives: 50, Negatives: 50, Prefix: "a-"},
		testutil.StratumSpec{Name: "B", Positives: 50, Negatives: 50, Prefix: "b-"},
	)

	eng, err := protsplit.New(blobstore.NewMemoryStore())
	if err != nil {
		panic(err)
	}
	res, err := eng.Split(ctx, "asthma", "asthma.json", in, 1)
	if err != nil {
		panic(err)
	}
	fmt.Println("loaded:", res.Loaded)
	fmt.Println("test strata:", len(res.Test))
	fmt.Println("attempts:", len(res.Attempts))
	// Output:
	// loaded: false
	// test strata: 2
	// attempts: 1
}
