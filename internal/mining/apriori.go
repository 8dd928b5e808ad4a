package mining

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
)

// candidatesPerWorker controls how candidate counting is chunked across the pool.
const candidatesPerWorker = 4

// Apriori is the level-wise frequent itemset miner. Support counting for each
// level is spread over a bounded worker pool; results do not depend on the
// number of workers.
type Apriori struct {
	workers int
	logger  *slog.Logger
}

func NewApriori(workers int, logger *slog.Logger) *Apriori {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Apriori{
		workers: workers,
		logger:  logger,
	}
}

type levelSet struct {
	cols  []int
	tids  Bitset
	count int
}

type candidate struct {
	cols        []int
	left, right int
	tids        Bitset
	count       int
}

func (a *Apriori) Mine(ctx context.Context, m *Matrix, opts Options) ([]Itemset, error) {
	if !(opts.MinSupport > 0 && opts.MinSupport <= 1) {
		return nil, &ComputationError{Op: "mine", Err: ErrInvalidSupport}
	}
	if m.Empty() {
		return nil, &ComputationError{Op: "mine", Err: ErrEmptyMatrix}
	}

	rows := float64(m.Rows)
	frequent := func(count int) bool {
		return float64(count)/rows >= opts.MinSupport
	}

	var level []levelSet
	for j, col := range m.Columns {
		if count := col.Count(); frequent(count) {
			level = append(level, levelSet{cols: []int{j}, tids: col, count: count})
		}
	}

	var result []Itemset
	result = a.appendItemsets(result, m, level)

	for k := 2; len(level) > 1 && (opts.MaxLength == 0 || k <= opts.MaxLength); k++ {
		if err := ctx.Err(); err != nil {
			return nil, &ComputationError{Op: "mine", Err: err}
		}

		cands := generateCandidates(level)
		if len(cands) == 0 {
			break
		}

		if err := a.countSupport(ctx, level, cands); err != nil {
			return nil, &ComputationError{Op: "mine", Err: err}
		}

		next := make([]levelSet, 0, len(cands))
		for _, c := range cands {
			if frequent(c.count) {
				next = append(next, levelSet{cols: c.cols, tids: c.tids, count: c.count})
			}
		}

		a.logger.Debug("apriori level complete",
			"length", k,
			"candidates", len(cands),
			"frequent", len(next),
		)

		level = next
		result = a.appendItemsets(result, m, level)
	}

	return result, nil
}

func (a *Apriori) appendItemsets(dst []Itemset, m *Matrix, level []levelSet) []Itemset {
	rows := float64(m.Rows)
	for _, ls := range level {
		items := make([]string, len(ls.cols))
		for i, c := range ls.cols {
			items[i] = m.Items[c]
		}
		slices.Sort(items)
		dst = append(dst, Itemset{Items: items, Support: float64(ls.count) / rows})
	}
	return dst
}

// generateCandidates joins itemsets of the previous level that share all but
// their last item, then drops joins with an infrequent subset. The level must
// be in lexicographic order of its column indexes.
func generateCandidates(level []levelSet) []candidate {
	known := make(map[string]struct{}, len(level))
	for _, ls := range level {
		known[colsKey(ls.cols)] = struct{}{}
	}

	var out []candidate
	for i := 0; i < len(level); i++ {
		a := level[i].cols
		prefix := a[:len(a)-1]
		for j := i + 1; j < len(level); j++ {
			b := level[j].cols
			if !slices.Equal(prefix, b[:len(b)-1]) {
				break
			}

			cols := make([]int, len(a)+1)
			copy(cols, a)
			cols[len(a)] = b[len(b)-1]

			if !allSubsetsKnown(cols, known) {
				continue
			}
			out = append(out, candidate{cols: cols, left: i, right: j})
		}
	}
	return out
}

// allSubsetsKnown checks the subsets that drop one of the shared prefix items;
// the two parents already cover the others.
func allSubsetsKnown(cols []int, known map[string]struct{}) bool {
	sub := make([]int, 0, len(cols)-1)
	for drop := 0; drop < len(cols)-2; drop++ {
		sub = sub[:0]
		sub = append(sub, cols[:drop]...)
		sub = append(sub, cols[drop+1:]...)
		if _, ok := known[colsKey(sub)]; !ok {
			return false
		}
	}
	return true
}

func (a *Apriori) countSupport(ctx context.Context, level []levelSet, cands []candidate) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	chunk := len(cands) / (a.workers * candidatesPerWorker)
	if chunk < 1 {
		chunk = 1
	}

	for start := 0; start < len(cands); start += chunk {
		end := min(start+chunk, len(cands))
		part := cands[start:end]

		g.Go(func() error {
			for i := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				c := &part[i]
				c.tids = intersect(level[c.left].tids, level[c.right].tids)
				c.count = c.tids.Count()
			}
			return nil
		})
	}

	return g.Wait()
}

func colsKey(cols []int) string {
	var sb strings.Builder
	for i, c := range cols {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(c))
	}
	return sb.String()
}
