package mining

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
)

const itemSep = "\x1f"

func (a *Apriori) DeriveRules(ctx context.Context, itemsets []Itemset, minLift float64) ([]Rule, error) {
	if !(minLift >= 0) || math.IsInf(minLift, 1) {
		return nil, &ComputationError{Op: "derive rules", Err: ErrInvalidLift}
	}

	supports := make(map[string]float64, len(itemsets))
	for _, is := range itemsets {
		supports[itemsKey(sortedCopy(is.Items))] = is.Support
	}

	rules := make([]Rule, 0)
	for _, is := range itemsets {
		if len(is.Items) < 2 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, &ComputationError{Op: "derive rules", Err: err}
		}

		items := sortedCopy(is.Items)
		k := len(items)
		for mask := 1; mask < (1<<k)-1; mask++ {
			ante := make([]string, 0, k)
			cons := make([]string, 0, k)
			for i, item := range items {
				if mask&(1<<i) != 0 {
					ante = append(ante, item)
				} else {
					cons = append(cons, item)
				}
			}

			sA, ok := supports[itemsKey(ante)]
			if !ok {
				return nil, &ComputationError{Op: "derive rules", Err: fmt.Errorf("%w: %v", ErrMissingSupport, ante)}
			}
			sC, ok := supports[itemsKey(cons)]
			if !ok {
				return nil, &ComputationError{Op: "derive rules", Err: fmt.Errorf("%w: %v", ErrMissingSupport, cons)}
			}

			r := scoreRule(ante, cons, is.Support, sA, sC)
			if r.Lift >= minLift {
				rules = append(rules, r)
			}
		}
	}

	SortRules(rules)
	return rules, nil
}

func scoreRule(ante, cons []string, support, sA, sC float64) Rule {
	confidence := support / sA
	lift := confidence / sC

	conviction := math.Inf(1)
	if confidence < 1 {
		conviction = (1 - sC) / (1 - confidence)
	}

	return Rule{
		Antecedents:       ante,
		Consequents:       cons,
		AntecedentSupport: sA,
		ConsequentSupport: sC,
		Support:           support,
		Confidence:        confidence,
		Lift:              lift,
		Leverage:          support - sA*sC,
		Conviction:        conviction,
	}
}

// SortRules orders rules by lift, confidence and support, all descending,
// breaking ties on the antecedent and consequent item lists.
func SortRules(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		if c := cmp.Compare(b.Lift, a.Lift); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Confidence, a.Confidence); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Support, a.Support); c != 0 {
			return c
		}
		if c := slices.Compare(a.Antecedents, b.Antecedents); c != 0 {
			return c
		}
		return slices.Compare(a.Consequents, b.Consequents)
	})
}

func itemsKey(items []string) string {
	return strings.Join(items, itemSep)
}

func sortedCopy(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return out
}
