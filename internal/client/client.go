// Package client implements the outbound downstream HTTP caller. Every
// call derives a child Grid context for the hop, injects it into the
// request headers, and is tracked as one operation.
package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/HoneyDrunkStudios/gridkernel/grid"
	"github.com/HoneyDrunkStudios/gridkernel/internal/resilience"
	"github.com/HoneyDrunkStudios/gridkernel/operation"
	"github.com/HoneyDrunkStudios/gridkernel/propagation"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Options tunes the downstream client.
type Options struct {
	Timeout    time.Duration
	MaxRetries int
	// RatePerSecond limits outbound calls; zero means unlimited.
	RatePerSecond float64
}

// Downstream calls other Grid nodes over HTTP with context propagation,
// retries, rate limiting, and a circuit breaker.
type Downstream struct {
	resty      *resty.Client
	limiter    *rate.Limiter
	breaker    *resilience.Breaker
	propagator *propagation.Propagator
	factory    *operation.Factory
	node       *grid.NodeContext
}

// New creates a downstream client. The propagator must be the HTTP one.
func New(node *grid.NodeContext, p *propagation.Propagator, factory *operation.Factory, opts Options) *Downstream {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 3
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.MaxRetries
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 30 * time.Second
	retryClient.Logger = nil // Disable logging

	restyClient := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", "gridkernel/1.0").
		SetTransport(retryClient.HTTPClient.Transport)

	limit := rate.Inf
	burst := 1
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
		burst = int(opts.RatePerSecond) + 1
	}

	return &Downstream{
		resty:   restyClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: resilience.New("downstream-http", resilience.Settings{
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		propagator: p,
		factory:    factory,
		node:       node,
	}
}

// Get issues a GET against url under a child context derived from the
// ambient context on ctx. Calls issued outside any scope go out as fresh
// roots so the downstream always receives a resolvable context.
func (d *Downstream) Get(ctx context.Context, url string) (resp *resty.Response, err error) {
	parent := grid.Current(ctx)

	var gc *grid.Context
	if parent == nil {
		gc = grid.NewRoot(d.node)
	} else {
		gc = parent.CreateChildContext("")
	}

	op := d.factory.Begin(gc, "downstream GET "+url)
	defer op.End(&err)
	_ = op.AddMetadata("http.url", operation.String(url))

	if err = d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	err = d.breaker.Execute(func() error {
		req := d.resty.R().SetContext(ctx)
		d.propagator.InjectContext(gc, propagation.HeaderCarrier(req.Header))

		r, callErr := req.Get(url)
		if callErr != nil {
			return callErr
		}
		resp = r
		if r.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("downstream returned %d", r.StatusCode())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}
