// Package security provides permission predicates for master-data
// operations. Predicates are CEL expressions over the request actor,
// compiled once at descriptor registration.
package security

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

func predicateEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("actor", cel.MapType(cel.StringType, cel.DynType)),
		)
	})
	return env, envErr
}

// Predicate is a compiled boolean expression over the request actor.
// The zero value (and nil) always permits.
type Predicate struct {
	src string
	prg cel.Program
}

// Compile builds a predicate from a CEL expression such as
// "actor.role == 'admin'". An empty expression yields an always-true
// predicate.
func Compile(src string) (*Predicate, error) {
	if src == "" {
		return &Predicate{}, nil
	}

	e, err := predicateEnv()
	if err != nil {
		return nil, fmt.Errorf("predicate env: %w", err)
	}

	ast, iss := e.Compile(src)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile predicate %q: %w", src, iss.Err())
	}

	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program predicate %q: %w", src, err)
	}

	return &Predicate{src: src, prg: prg}, nil
}

// MustCompile is Compile that panics on error. Use for static registrations.
func MustCompile(src string) *Predicate {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Allow evaluates the predicate against the actor input. Evaluation errors
// and non-boolean results deny.
func (p *Predicate) Allow(actorInput map[string]any) bool {
	if p == nil || p.prg == nil {
		return true
	}
	if actorInput == nil {
		actorInput = map[string]any{}
	}

	out, _, err := p.prg.Eval(map[string]any{"actor": actorInput})
	if err != nil {
		return false
	}

	allowed, ok := out.Value().(bool)
	return ok && allowed
}

// Source returns the original expression ("" for always-allow).
func (p *Predicate) Source() string {
	if p == nil {
		return ""
	}
	return p.src
}
