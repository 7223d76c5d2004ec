// Solve Kuhn Poker with counterfactual regret minimization, optionally
// checkpointing the statistics stores so the solve can be resumed.
package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"gopkg.in/yaml.v3"

	"github.com/mbabramo/ACESim4-sub001"
	"github.com/mbabramo/ACESim4-sub001/internal/solve"
	"github.com/mbabramo/ACESim4-sub001/ldbstore"
	"github.com/mbabramo/ACESim4-sub001/rdbstore"
)

func main() {
	var params solve.RunParams
	configPath := flag.String("config", "", "YAML file of run parameters; flags given explicitly take precedence")
	flag.StringVar(&params.Mode, "mode", cfr.CompactHistoryReplay.String(),
		"Navigation mode: LiveSimulationReplay, CompactHistoryReplay, MaterializedTree or CompactHistoryAndTree")
	flag.StringVar(&params.Solver, "solver", "vanilla", "Solver to run: vanilla or external")
	flag.IntVar(&params.Iterations, "iter", 10000, "Number of iterations to run")
	flag.IntVar(&params.BatchSize, "batch_size", 1000, "Iterations per batch")
	flag.BoolVar(&params.BuildTree, "build_tree", false, "Materialize the full game tree before solving")
	flag.IntVar(&params.ExternalSampling.Workers, "es.workers", 4, "Number of external sampling workers")
	flag.Uint64Var(&params.ExternalSampling.Seed, "es.seed", 123, "Random seed")
	flag.BoolVar(&params.Discount.UseRegretMatchingPlus, "discount.cfr_plus", false, "Use CFR+")
	flag.BoolVar(&params.Discount.LinearWeighting, "discount.linear", false, "Use linear CFR")
	flag.Float64Var(&params.Discount.DiscountAlpha, "discount.alpha", 0, "Discounted CFR alpha")
	flag.Float64Var(&params.Discount.DiscountBeta, "discount.beta", 0, "Discounted CFR beta")
	flag.Float64Var(&params.Discount.DiscountGamma, "discount.gamma", 0, "Discounted CFR gamma")
	flag.StringVar(&params.Checkpoint.Backend, "checkpoint.backend", "", "Checkpoint backend: leveldb or rocksdb")
	flag.StringVar(&params.Checkpoint.Path, "checkpoint.path", "", "Checkpoint database path")
	flag.IntVar(&params.Checkpoint.Interval, "checkpoint.interval", 1000, "Iterations between checkpoints")
	flag.StringVar(&params.PprofAddr, "pprof_addr", "localhost:4123", "Address to serve pprof on")
	flag.Parse()

	if *configPath != "" {
		if err := loadConfig(*configPath, &params); err != nil {
			glog.Fatal(err)
		}
	}

	go http.ListenAndServe(params.PprofAddr, nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := solve.Run(ctx, params, openCheckpoint); err != nil {
		glog.Errorf("Solve failed: %+v", err)
		glog.Flush()
		os.Exit(1)
	}

	glog.Flush()
}

// loadConfig decodes the YAML file into params, then applies the flags
// given on the command line again so that they override the file.
func loadConfig(path string, params *solve.RunParams) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open config")
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(params); err != nil {
		return errors.Wrapf(err, "decode config %s", path)
	}

	return flag.CommandLine.Parse(os.Args[1:])
}

func openCheckpoint(params solve.CheckpointParams) (solve.Checkpointer, error) {
	switch params.Backend {
	case "":
		return nil, nil
	case "leveldb":
		c, err := ldbstore.Open(params.Path, &opt.Options{})
		if err != nil {
			return nil, err
		}
		return c, nil
	case "rocksdb":
		c, err := rdbstore.Open(rdbstore.DefaultParams(params.Path))
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, errors.Errorf("unknown checkpoint backend %q", params.Backend)
	}
}
