package length

import (
	"context"
	"encoding/json"
	"math"

	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/engine"
)

// chain is a run of links where both indices advance by one.
type chain struct {
	links []link
}

func (c chain) first() link { return c.links[0] }
func (c chain) last() link  { return c.links[len(c.links)-1] }

func chains(ls []link) []chain {
	var out []chain
	for i, l := range ls {
		if i > 0 {
			prev := ls[i-1]
			if l.From == prev.From+1 && l.To == prev.To+1 {
				out[len(out)-1].links = append(out[len(out)-1].links, l)
				continue
			}
		}
		out = append(out, chain{links: []link{l}})
	}
	return out
}

// anchors keeps the chains of at least minChain links that advance
// monotonically in both directions.
func anchors(cs []chain, minChain int) []chain {
	var out []chain
	for _, c := range cs {
		if len(c.links) < minChain {
			continue
		}
		if len(out) > 0 && c.first().To <= out[len(out)-1].last().To {
			continue
		}
		out = append(out, c)
	}
	return out
}

func newConflict(from, to engine.Span) engine.Conflict {
	c := engine.Conflict{
		Length: max(from.Len(), to.Len()),
		From:   from,
		To:     to,
	}
	c.Raw, _ = json.Marshal([2][2]int{{from.Start, from.End}, {to.Start, to.End}})
	return c
}

// FindConflicts returns the gaps between anchor chains. Gaps no longer than
// q.MaxLen are conflicts, longer ones are returned as rest. The regions
// before the first and after the last anchor count only when HandleStart
// and HandleFinish are set.
func (e *Engine) FindConflicts(ctx context.Context, path string, q engine.ConflictQuery) ([]engine.Conflict, []engine.Conflict, error) {
	a, err := load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	defer a.db.Close()

	ls, err := a.links(ctx)
	if err != nil {
		return nil, nil, err
	}

	minChain := max(q.MinChain, 1)
	anchored := anchors(chains(ls), minChain)
	n, m := len(a.from), len(a.to)

	var gaps []engine.Conflict
	if len(anchored) == 0 {
		if (n > 0 || m > 0) && q.HandleStart && q.HandleFinish {
			gaps = append(gaps, newConflict(engine.Span{Start: 0, End: n}, engine.Span{Start: 0, End: m}))
		}
	} else {
		head := anchored[0].first()
		if q.HandleStart && (head.From > 0 || head.To > 0) {
			gaps = append(gaps, newConflict(engine.Span{Start: 0, End: head.From}, engine.Span{Start: 0, End: head.To}))
		}
		for i := 1; i < len(anchored); i++ {
			prev, next := anchored[i-1].last(), anchored[i].first()
			from := engine.Span{Start: prev.From + 1, End: next.From}
			to := engine.Span{Start: prev.To + 1, End: next.To}
			if from.Len() == 0 && to.Len() == 0 {
				continue
			}
			gaps = append(gaps, newConflict(from, to))
		}
		tail := anchored[len(anchored)-1].last()
		if q.HandleFinish && (tail.From < n-1 || tail.To < m-1) {
			gaps = append(gaps, newConflict(engine.Span{Start: tail.From + 1, End: n}, engine.Span{Start: tail.To + 1, End: m}))
		}
	}

	batchSize := a.metaInt("batch_size", 0)
	var conflicts, rest []engine.Conflict
	for _, g := range gaps {
		if q.BatchID >= 0 && batchSize > 0 && g.From.Start/batchSize != q.BatchID {
			continue
		}
		if q.MaxLen > 0 && g.Length > q.MaxLen {
			rest = append(rest, g)
		} else {
			conflicts = append(conflicts, g)
		}
	}

	e.logger.Debug("conflicts found",
		zap.Int("min_chain", minChain),
		zap.Int("max_len", q.MaxLen),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("rest", len(rest)))
	return conflicts, rest, nil
}

// Penalties added to the length cost of a group in the resolution program.
const (
	costMerge = 0.3
	costSkip  = 1.0
)

type move struct {
	df, dt  int
	penalty float64
}

var moves = []move{
	{1, 1, 0},
	{2, 1, costMerge},
	{1, 2, costMerge},
	{1, 0, costSkip},
	{0, 1, costSkip},
}

// ResolveConflicts re-aligns the sentences inside every conflict with a
// monotone dynamic program over 1-1, 2-1, 1-2, 1-0 and 0-1 groups.
func (e *Engine) ResolveConflicts(ctx context.Context, path string, conflicts []engine.Conflict, model string) error {
	if len(conflicts) == 0 {
		return nil
	}

	a, err := load(ctx, path)
	if err != nil {
		return err
	}
	defer a.db.Close()

	ratio := a.ratio()
	fromLen := lengths(a.from)
	toLen := lengths(a.to)
	batchSize := a.metaInt("batch_size", 0)

	var clear []int
	var ls []link
	for _, c := range conflicts {
		if err := ctx.Err(); err != nil {
			return err
		}
		from := clip(c.From, len(a.from))
		to := clip(c.To, len(a.to))
		if from.Len() == 0 {
			continue
		}
		for i := from.Start; i < from.End; i++ {
			clear = append(clear, i)
		}
		ls = append(ls, resolveSpan(from, to, fromLen, toLen, ratio, batchSize)...)
	}

	if err := a.writeLinks(ctx, clear, ls); err != nil {
		return err
	}

	e.logger.Debug("conflicts resolved",
		zap.String("model", model),
		zap.Int("conflicts", len(conflicts)),
		zap.Int("links", len(ls)))
	return nil
}

func clip(s engine.Span, n int) engine.Span {
	s.Start = max(0, min(s.Start, n))
	s.End = max(s.Start, min(s.End, n))
	return s
}

func resolveSpan(from, to engine.Span, fromLen, toLen []int, ratio float64, batchSize int) []link {
	F, T := from.Len(), to.Len()

	cost := make([][]float64, F+1)
	back := make([][]int, F+1)
	for i := range cost {
		cost[i] = make([]float64, T+1)
		back[i] = make([]int, T+1)
		for j := range cost[i] {
			cost[i][j] = math.Inf(1)
			back[i][j] = -1
		}
	}
	cost[0][0] = 0

	for i := 0; i <= F; i++ {
		for j := 0; j <= T; j++ {
			if math.IsInf(cost[i][j], 1) {
				continue
			}
			for k, mv := range moves {
				ni, nj := i+mv.df, j+mv.dt
				if ni > F || nj > T {
					continue
				}
				lf := sum(fromLen, from.Start+i, from.Start+ni)
				lt := sum(toLen, to.Start+j, to.Start+nj)
				c := cost[i][j] + mv.penalty
				if mv.df > 0 && mv.dt > 0 {
					c += lengthCost(lf, lt, ratio)
				}
				if c < cost[ni][nj] {
					cost[ni][nj] = c
					back[ni][nj] = k
				}
			}
		}
	}

	type group struct {
		move
		i, j int
		cost float64
	}
	var groups []group
	for i, j := F, T; i > 0 || j > 0; {
		mv := moves[back[i][j]]
		pi, pj := i-mv.df, j-mv.dt
		groups = append(groups, group{move: mv, i: pi, j: pj, cost: cost[i][j] - cost[pi][pj]})
		i, j = pi, pj
	}

	var ls []link
	cur := to.Start - 1
	for k := len(groups) - 1; k >= 0; k-- {
		g := groups[k]
		cur += g.dt
		if g.df == 0 || cur < 0 {
			continue
		}
		for r := 0; r < g.df; r++ {
			i := from.Start + g.i + r
			batch := 0
			if batchSize > 0 {
				batch = i / batchSize
			}
			ls = append(ls, link{From: i, To: cur, Batch: batch, Score: similarity(g.cost)})
		}
	}
	return ls
}

func sum(xs []int, start, end int) int {
	n := 0
	for _, x := range xs[start:end] {
		n += x
	}
	return n
}
