// Command protsplit splits the labeled proteins of one disease into train and
// test sets and stores the split record.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	arg "github.com/alexflint/go-arg"

	"github.com/hupe1980/protsplit"
	"github.com/hupe1980/protsplit/dataset"
)

func noErr(log *protsplit.Logger, err error) {
	if err != nil {
		log.Error("protsplit failed", "error", err)
		os.Exit(1)
	}
}

func main() {
	args := struct {
		Config     string `help:"YAML engine and store config"`
		Disease    string `arg:"required" help:"disease key in the label files"`
		Positives  string `arg:"required" help:"positive label JSON"`
		Negatives  string `arg:"required" help:"negative label JSON"`
		Layers     string `arg:"required" help:"cell-type PPI layer file"`
		Embeddings string `arg:"required" help:"little-endian float32 embedding matrix, rows in layer order"`
		Dim        int    `arg:"required" help:"embedding dimension"`
		SplitPath  string `arg:"--split-path,required" help:"split record path in the store"`
		Seed       int64  `help:"seed of the first attempt"`
	}{
		Seed: 1,
	}
	arg.MustParse(&args)

	ctx := context.Background()

	cfg, err := loadConfig(args.Config)
	noErr(protsplit.NewLogger(nil), err)
	log := cfg.Logger()

	in, err := readInput(args.Disease, args.Positives, args.Negatives, args.Layers, args.Embeddings, args.Dim)
	noErr(log, err)

	store, err := protsplit.OpenStore(ctx, cfg.Store)
	noErr(log, err)
	eng, err := protsplit.New(store, cfg.Options()...)
	noErr(log, err)

	res, err := eng.Split(ctx, args.Disease, args.SplitPath, in, args.Seed)
	noErr(log, err)

	fmt.Printf("split %s (loaded=%v, attempts=%d)\n", args.SplitPath, res.Loaded, len(res.Attempts))
	fmt.Printf("train: %d rows\n", res.Train.Len())
	names := make([]string, 0, len(res.Test))
	for name := range res.Test {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		b := res.Test[name]
		pos := 0
		for _, l := range b.Labels {
			pos += l
		}
		fmt.Printf("test %s: %d rows, %d positive\n", name, b.Len(), pos)
	}
}

func loadConfig(path string) (*protsplit.Config, error) {
	if path == "" {
		return protsplit.ParseConfig([]byte("{}"))
	}
	return protsplit.LoadConfig(path)
}

func readInput(disease, posPath, negPath, layerPath, embPath string, dim int) (dataset.Input, error) {
	pos, err := dataset.ReadLabelsFile(posPath, disease)
	if err != nil {
		return dataset.Input{}, err
	}
	neg, err := dataset.ReadLabelsFile(negPath, disease)
	if err != nil {
		return dataset.Input{}, err
	}

	lf, err := os.Open(layerPath)
	if err != nil {
		return dataset.Input{}, err
	}
	defer lf.Close()
	layers, err := dataset.LoadLayers(lf)
	if err != nil {
		return dataset.Input{}, err
	}

	m, err := dataset.ReadMatrixFile(embPath, dim)
	if err != nil {
		return dataset.Input{}, err
	}

	rows, total := layers.Layout()
	if total != m.Rows {
		return dataset.Input{}, fmt.Errorf("%w: layers list %d proteins, embedding matrix has %d rows", dataset.ErrStructure, total, m.Rows)
	}

	return dataset.Input{
		Embeddings: m,
		Rows:       rows,
		Proteins:   layers.Proteins,
		Positives:  pos.WithAggregates(),
		Negatives:  neg.WithAggregates(),
		Strata:     layers.Strata(),
	}, nil
}
