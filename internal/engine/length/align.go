package length

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"go.uber.org/zap"

	"github.com/valpere/mojify/internal/engine"
)

// positionWeight scales the distance from the expected diagonal into the
// cost of a candidate.
const positionWeight = 0.5

// AlignBatches links every from sentence of the requested batches to the
// to sentence with the lowest length cost within p.Window of the diagonal.
// The model name and p.EmbedBatchSize have no effect on this engine.
func (e *Engine) AlignBatches(ctx context.Context, path, model string, p engine.BatchParams) error {
	if p.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", p.BatchSize)
	}

	a, err := load(ctx, path)
	if err != nil {
		return err
	}
	defer a.db.Close()

	n, m := len(a.from), len(a.to)
	if n == 0 || m == 0 {
		return nil
	}

	window := p.Window
	if window <= 0 {
		window = 40
	}
	ratio := a.ratio()

	fromLen := lengths(a.from)
	toLen := lengths(a.to)

	var ls []link
	for _, b := range p.BatchIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := b * p.BatchSize
		if b < 0 || start >= n {
			continue
		}
		end := min(start+p.BatchSize, n)

		for i := start; i < end; i++ {
			diag := int(math.Round(float64(i) * float64(m) / float64(n)))
			best, bestCost := -1, math.Inf(1)
			for j := max(0, diag-window); j < min(m, diag+window+1); j++ {
				cost := lengthCost(fromLen[i], toLen[j], ratio)
				cost += positionWeight * math.Abs(float64(j-diag)) / float64(window)
				if cost < bestCost {
					best, bestCost = j, cost
				}
			}
			if best >= 0 {
				ls = append(ls, link{From: i, To: best, Batch: b, Score: similarity(bestCost)})
			}
		}
	}

	if err := a.writeLinks(ctx, nil, ls); err != nil {
		return err
	}
	if err := a.setMeta(ctx, "batch_size", strconv.Itoa(p.BatchSize)); err != nil {
		return fmt.Errorf("failed to write meta: %w", err)
	}

	e.logger.Debug("batches aligned",
		zap.String("model", model),
		zap.Int("batches", len(p.BatchIDs)),
		zap.Int("links", len(ls)))
	return nil
}

func lengths(ss []string) []int {
	out := make([]int, len(ss))
	for i, s := range ss {
		out[i] = textLen(s)
	}
	return out
}
