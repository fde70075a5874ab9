package runner

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"github.com/selimozcann/linkflow/internal/model"
	"github.com/selimozcann/linkflow/internal/trace"
)

// Config holds settings for the runner.
type Config struct {
	Threads   int
	RateLimit float64 // walks started per second, 0 = unlimited
	Options   trace.Options
}

// Outcome is the result of tracing one target.
type Outcome struct {
	Target string
	Result model.Result
	Err    error
}

// Tracer is the walk the runner fans out.
type Tracer interface {
	Trace(ctx context.Context, target string, opts trace.Options) (model.Result, error)
}

// Runner coordinates concurrent walks. Each target is still traced
// sequentially, hop by hop; only independent targets run in parallel.
type Runner struct {
	cfg    Config
	tracer Tracer
}

// New creates a new Runner.
func New(cfg Config, tracer Tracer) *Runner {
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	return &Runner{cfg: cfg, tracer: tracer}
}

// Run traces targets and returns outcomes in input order. Targets not
// started before ctx is done report ctx.Err().
func (r *Runner) Run(ctx context.Context, targets []string) []Outcome {
	out := make([]Outcome, len(targets))
	for i, t := range targets {
		out[i] = Outcome{Target: t}
	}

	var limiter *rate.Limiter
	if r.cfg.RateLimit > 0 {
		burst := int(r.cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(r.cfg.RateLimit), burst)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < r.cfg.Threads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						out[idx].Err = err
						continue
					}
				}
				res, err := r.tracer.Trace(ctx, targets[idx], r.cfg.Options)
				out[idx].Result = res
				out[idx].Err = err
			}
		}()
	}

	for i := range targets {
		if ctx.Err() != nil {
			for j := i; j < len(targets); j++ {
				out[j].Err = ctx.Err()
			}
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
