package art

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// Chord is a pair of anchor indices connected by a drawn thread segment.
type Chord struct {
	I int `json:"i"`
	J int `json:"j"`
}

// Step describes one accepted chord. The working grid is shared with the
// loop and must be treated as read-only by the sink.
type Step struct {
	Chord    Chord
	Loss     float64
	Accepted int
	Working  *Grid
}

// Sink receives the working grid after every accepted chord, for preview
// and progress reporting. A non-nil error stops the run; it is a shutdown
// signal, not a failure.
type Sink func(Step) error

// Result holds the outcome of a fitting run.
type Result struct {
	Working     *Grid
	Chords      []Chord
	InitialLoss float64
	FinalLoss   float64
}

// State is the resumable part of a run: the accumulated working grid, the
// loss it achieves, the current anchor of the thread (fast mode) and the
// number of chords accepted so far.
type State struct {
	Working       *Grid
	PrevLoss      float64
	CurrentAnchor int
	Accepted      int
}

// Fit runs the greedy chord search from an empty working grid. Each step
// rasterizes every admissible candidate chord, scores it against the
// target, applies the best one and repeats until no candidate improves the
// loss within the configured tolerance.
//
// The initial loss is that of the empty grid, so at zero tolerance a target
// the empty grid already satisfies accepts zero chords. A positive tolerance
// deliberately admits per-step regressions up to its value, so even a blank
// target may collect a few faint chords before the loop stalls.
func Fit(ctx context.Context, cfg Config, target *Grid, sink Sink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	working := NewGrid(cfg.Size)
	state := State{
		Working:       working,
		PrevLoss:      Loss(target, working),
		CurrentAnchor: cfg.StartAnchor,
	}
	return FitFrom(ctx, cfg, target, state, sink)
}

// FitFrom continues the greedy search from a previous state. The state
// fully determines the remainder of the run, so resuming a checkpoint
// yields the same chords an uninterrupted run would have produced.
func FitFrom(ctx context.Context, cfg Config, target *Grid, state State, sink Sink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if target.Side != cfg.Size {
		return nil, fmt.Errorf("target side %d does not match configured size %d", target.Side, cfg.Size)
	}
	if state.Working.Side != cfg.Size {
		return nil, fmt.Errorf("working side %d does not match configured size %d", state.Working.Side, cfg.Size)
	}

	anchors, err := Layout(cfg)
	if err != nil {
		return nil, err
	}

	working := state.Working
	prevLoss := state.PrevLoss
	aCur := state.CurrentAnchor
	accepted := state.Accepted

	res := &Result{
		Working:     working,
		InitialLoss: prevLoss,
	}

	slog.Info("Starting fit",
		"size", cfg.Size,
		"anchors", cfg.Anchors,
		"mode", cfg.Mode,
		"shape", cfg.Shape,
		"initial_loss", prevLoss,
	)

	// Scratch buffers reused across the whole run: one for the candidate
	// being scored, one holding the best candidate found this step.
	mask := NewGrid(cfg.Size)
	best := NewGrid(cfg.Size)

	for {
		// Cancellation is only honored between search steps; a chord is
		// either fully applied or not at all.
		select {
		case <-ctx.Done():
			slog.Info("Fit cancelled", "chords", accepted, "loss", prevLoss)
			res.FinalLoss = prevLoss
			return res, nil
		default:
		}

		chord, loss, found := searchStep(cfg, anchors, target, working, mask, best, prevLoss, aCur)
		if !found || prevLoss-loss < -cfg.Tolerance {
			slog.Info("Fit stalled", "chords", accepted, "loss", prevLoss)
			break
		}

		working.Accumulate(best)
		prevLoss = loss
		accepted++
		res.Chords = append(res.Chords, chord)
		if cfg.Mode == ModeFast {
			aCur = chord.J
		}

		if sink != nil {
			if err := sink(Step{Chord: chord, Loss: prevLoss, Accepted: accepted, Working: working}); err != nil {
				slog.Info("Sink closed, stopping", "chords", accepted, "reason", err)
				break
			}
		}
	}

	res.FinalLoss = prevLoss
	return res, nil
}

// searchStep enumerates the candidate set for one iteration, scores every
// chord against the target and returns the best one together with its loss.
// On success the caller finds the winning mask in best.
//
// Candidates are visited in ascending index order and replaced only on
// strict improvement, which realizes the lexicographic tie-break and keeps
// the accepted sequence deterministic.
func searchStep(cfg Config, anchors []Point, target, working, mask, best *Grid, prevLoss float64, aCur int) (Chord, float64, bool) {
	var (
		chord    Chord
		found    bool
		bestLoss = math.Inf(1)
	)

	consider := func(i, j int) {
		if !cfg.Admissible(i, j) {
			return
		}
		// A chord that touches no pixel center scores exactly prevLoss
		// without changing the grid; accepting one would loop forever.
		if ChordMask(cfg, anchors, i, j, mask) == 0 {
			return
		}
		loss, ok := Score(target, working, mask, prevLoss, cfg.Tolerance)
		if !ok || loss >= bestLoss {
			return
		}
		bestLoss = loss
		chord = Chord{I: i, J: j}
		found = true
		copy(best.Pix, mask.Pix)
	}

	if cfg.Mode == ModeFast {
		for j := 0; j < cfg.Anchors; j++ {
			consider(aCur, j)
		}
	} else {
		for i := 0; i < cfg.Anchors; i++ {
			for j := i + 1; j < cfg.Anchors; j++ {
				consider(i, j)
			}
		}
	}

	return chord, bestLoss, found
}
