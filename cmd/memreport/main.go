package main

import (
	"fmt"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/QuangTung97/memalloc/alloc"
	"github.com/QuangTung97/memalloc/alloctest"
	"github.com/QuangTung97/memalloc/arena"
)

type Params struct {
	MemLimit boa.Required[int]  `descr:"arena capacity in KiB" default:"1024"`
	Requests boa.Required[int]  `descr:"number of random requests to run" default:"100000"`
	MaxSize  boa.Required[int]  `descr:"max request size in bytes" default:"4096"`
	Seed     boa.Required[int]  `descr:"rng seed" default:"42"`
	Quota    boa.Optional[int]  `descr:"byte quota enforced on top of the arena"`
	Verbose  boa.Required[bool] `descr:"log every allocator operation" default:"false"`
}

func (p *Params) WithValidation() *Params {
	p.MemLimit.CustomValidator = func(i int) error {
		if i <= 0 {
			return fmt.Errorf("mem limit must be greater than 0")
		}
		return nil
	}
	p.Requests.CustomValidator = func(i int) error {
		if i <= 0 {
			return fmt.Errorf("number of requests must be greater than 0")
		}
		return nil
	}
	p.MaxSize.CustomValidator = func(i int) error {
		if i <= 0 {
			return fmt.Errorf("max size must be greater than 0")
		}
		return nil
	}
	p.Quota.CustomValidator = func(i int) error {
		if i < 0 {
			return fmt.Errorf("quota must not be negative")
		}
		return nil
	}
	return p
}

func exitWithError(msg string) {
	_, _ = fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

func main() {
	params := new(Params).WithValidation()
	boa.Wrap{
		Use:    "memreport",
		Short:  "drive a random workload against an arena allocator and report usage",
		Params: params,
		ParamEnrich: boa.ParamEnricherCombine(
			boa.ParamEnricherName,
			boa.ParamEnricherShort,
			boa.ParamEnricherBool,
		),
		Run: func(cmd *cobra.Command, args []string) {
			logger := logrus.New()
			logger.SetLevel(lo.Ternary(params.Verbose.Value(), logrus.DebugLevel, logrus.InfoLevel))

			region := arena.New(arena.Config{
				MemLimit: params.MemLimit.Value() * 1024,
			})

			var backend alloc.Allocator = region
			if params.Quota.HasValue() {
				backend = alloc.NewThreshold(backend, uintptr(*params.Quota.Value()))
			}
			if params.Verbose.Value() {
				backend = alloc.NewLog(backend, logger)
			}
			tracker := alloc.NewTracking(backend)

			harness := alloctest.NewHarness(tracker, int64(params.Seed.Value()))
			if err := harness.Run(params.Requests.Value(), uintptr(params.MaxSize.Value())); err != nil {
				exitWithError(fmt.Sprintf("workload failed: %v", err))
			}

			leaked := harness.Live()
			if err := harness.ReleaseAll(); err != nil {
				exitWithError(fmt.Sprintf("release failed: %v", err))
			}

			logger.WithFields(logrus.Fields{
				"requests":         params.Requests.Value(),
				"allocations":      tracker.NumAllocations(),
				"deallocations":    tracker.NumDeallocations(),
				"resizes":          tracker.NumResizes(),
				"failures":         tracker.NumFailures(),
				"peak_bytes":       uint64(tracker.PeakAllocatedBytes()),
				"cumulative_bytes": uint64(tracker.CumulativeAllocatedBytes()),
				"live_at_end":      leaked,
				"arena_usage":      region.Usage(),
			}).Info("allocation report")
		},
	}.ToApp()
}
