// Package provider defines the candidate-sentence source contract.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/verte-zerg/apbtype/internal/model"
)

// ErrNoSentences is returned when a provider produced nothing usable.
var ErrNoSentences = errors.New("no sentences")

// Request asks for candidate sentences for one phase.
type Request struct {
	Phase       model.Phase
	Count       int
	MaxLength   int
	Transitions []model.Transition
}

// Result is either a success carrying sentences or a failure carrying Err.
type Result struct {
	Source    string
	Sentences []string
	Err       error
}

// Success returns a successful result.
func Success(source string, sentences []string) Result {
	return Result{Source: source, Sentences: sentences}
}

// Failure returns a failed result.
func Failure(source string, err error) Result {
	if err == nil {
		err = ErrNoSentences
	}
	return Result{Source: source, Err: err}
}

// Failed reports whether the result is a failure.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Provider produces candidate sentences.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) Result
}

// Func adapts a function to Provider.
type Func struct {
	ID string
	Fn func(ctx context.Context, req Request) Result
}

// Name implements Provider.
func (f Func) Name() string {
	return f.ID
}

// Generate implements Provider.
func (f Func) Generate(ctx context.Context, req Request) Result {
	return f.Fn(ctx, req)
}

type chain struct {
	providers []Provider
}

// Chain tries providers in order and returns the first non-empty success.
// When all fail, the failure lists every reason.
func Chain(providers ...Provider) Provider {
	return chain{providers: providers}
}

func (c chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, p := range c.providers {
		names = append(names, p.Name())
	}
	return strings.Join(names, ">")
}

func (c chain) Generate(ctx context.Context, req Request) Result {
	var errs []error
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return Failure(c.Name(), err)
		}
		res := p.Generate(ctx, req)
		if res.Failed() {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), res.Err))
			continue
		}
		if len(res.Sentences) == 0 {
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), ErrNoSentences))
			continue
		}
		return res
	}
	if len(errs) == 0 {
		return Failure(c.Name(), ErrNoSentences)
	}
	return Failure(c.Name(), errors.Join(errs...))
}
