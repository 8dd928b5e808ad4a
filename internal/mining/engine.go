// Package mining discovers frequent itemsets over a boolean basket matrix and
// derives association rules from them.
//
// Callers depend on the Engine interface only:
//
//	itemsets, err := engine.Mine(ctx, matrix, mining.Options{MinSupport: 0.02})
//	rules, err := engine.DeriveRules(ctx, itemsets, 1.0)
//
// Support is the fraction of rows that contain every item of a set. A rule
// A -> C carries confidence = support(A ∪ C) / support(A) and
// lift = confidence / support(C).
package mining

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrInvalidSupport = errors.New("minimum support must be in (0, 1]")
	ErrInvalidLift    = errors.New("minimum lift must be a non-negative number")
	ErrEmptyMatrix    = errors.New("basket matrix has no rows or no items")
	ErrMissingSupport = errors.New("itemset support missing for rule subset")
)

// ComputationError reports a failure inside the mining stage.
type ComputationError struct {
	Op  string
	Err error
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("mining %s: %v", e.Op, e.Err)
}

func (e *ComputationError) Unwrap() error {
	return e.Err
}

// Options tunes a Mine call. MaxLength of zero means no bound on itemset size.
type Options struct {
	MinSupport float64
	MaxLength  int
}

// Itemset is a frequent set of items with its support fraction. Items are
// sorted ascending.
type Itemset struct {
	Items   []string
	Support float64
}

// Rule is an association rule Antecedents -> Consequents.
// Conviction is +Inf when Confidence is 1.
type Rule struct {
	Antecedents       []string
	Consequents       []string
	AntecedentSupport float64
	ConsequentSupport float64
	Support           float64
	Confidence        float64
	Lift              float64
	Leverage          float64
	Conviction        float64
}

type Engine interface {
	Mine(ctx context.Context, m *Matrix, opts Options) ([]Itemset, error)
	DeriveRules(ctx context.Context, itemsets []Itemset, minLift float64) ([]Rule, error)
}
