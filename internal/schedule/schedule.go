// Package schedule turns a sequence of timed say items into an absolute
// performance timeline. It is pure: session state is read, never mutated,
// and all randomness comes through the injected source.
package schedule

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/BlackRoad-OS/blackroad-os-prism-enterprise-sub005/internal/domain"
)

// Rand is the source of humanize jitter. Tests inject a fixed-seed
// *rand.Rand for reproducible output.
type Rand interface {
	Float64() float64
}

// Engine builds performance timelines.
type Engine struct {
	rand Rand
}

// New creates an engine. A nil source falls back to a time-seeded one,
// matching the reference behavior of non-reproducible jitter.
func New(r Rand) *Engine {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rand: r}
}

// BuildSchedule places each item on the timeline:
//
//  1. base offset = explicit at_ms if present and non-negative, else the
//     beat position converted through the session tempo, else the running
//     cursor (end of the previous item),
//  2. quantized to the session's subdivision grid, plus bounded humanize
//     jitter,
//  3. duration estimated from text length and pacing,
//  4. cursor advanced to max(cursor, offset) + duration so un-anchored
//     items never overlap their predecessor.
func (e *Engine) BuildSchedule(items []domain.SayItem, sess domain.SessionState) []domain.ScheduledWord {
	msPerBeat := sess.MsPerBeat()
	out := make([]domain.ScheduledWord, 0, len(items))
	cursor := 0.0

	for _, item := range items {
		base := cursor
		switch {
		case item.AtMs != nil && *item.AtMs >= 0:
			base = *item.AtMs
		case item.Beat != nil:
			base = *item.Beat * msPerBeat
		}

		offset := e.humanize(quantize(base, sess), sess.HumanizeMs)
		duration := estimateDuration(item, sess)

		out = append(out, domain.ScheduledWord{
			Word:       item,
			OffsetMs:   offset,
			DurationMs: duration,
		})
		cursor = math.Max(cursor, offset) + duration
	}
	return out
}

// quantize snaps an offset to the nearest grid point of the session's
// subdivision at the current tempo. Disabled when the session carries no
// usable tempo or grid.
func quantize(offsetMs float64, sess domain.SessionState) float64 {
	if sess.BPM <= 0 || sess.Subdivision <= 0 || sess.TimeSigDen <= 0 {
		return offsetMs
	}
	// One beat is a 1/TimeSigDen note, so the grid step for e.g. a
	// sixteenth subdivision in 4/4 is a quarter of a beat.
	gridMs := sess.MsPerBeat() * float64(sess.TimeSigDen) / float64(sess.Subdivision)
	if gridMs <= 0 {
		return offsetMs
	}
	return math.Round(offsetMs/gridMs) * gridMs
}

// humanize adds jitter uniformly drawn from [-maxMs, +maxMs], floored at
// zero.
func (e *Engine) humanize(offsetMs, maxMs float64) float64 {
	if maxMs <= 0 {
		return offsetMs
	}
	jittered := offsetMs + (e.rand.Float64()*2-1)*maxMs
	return math.Max(0, jittered)
}

// estimateDuration derives an item's spoken length from its character
// count, a beats-per-character baseline, and the combined pacing factors.
func estimateDuration(item domain.SayItem, sess domain.SessionState) float64 {
	pace := item.Pace
	if pace == 0 {
		pace = 1
	}
	paceBias := sess.PaceBias
	if paceBias == 0 {
		paceBias = 1
	}
	beats := math.Max(0.25, float64(len([]rune(item.Text)))/12)
	return beats / math.Max(0.2, pace*paceBias) * sess.MsPerBeat()
}

// tightGapMs is the soft floor below which consecutive offsets are flagged
// as packed too tightly.
const tightGapMs = 20.0

// EstimateMetrics summarizes a built timeline: minimum and mean gap between
// consecutive offsets, total span, and soft warnings for tight gaps.
func EstimateMetrics(words []domain.ScheduledWord) domain.ScheduleMetrics {
	m := domain.ScheduleMetrics{Count: len(words)}
	if len(words) == 0 {
		return m
	}

	last := words[len(words)-1]
	m.TotalMs = last.OffsetMs + last.DurationMs

	if len(words) == 1 {
		return m
	}
	m.MinGapMs = math.Inf(1)
	sum := 0.0
	for i := 1; i < len(words); i++ {
		gap := words[i].OffsetMs - words[i-1].OffsetMs
		sum += gap
		if gap < m.MinGapMs {
			m.MinGapMs = gap
		}
		if gap < tightGapMs {
			m.Warnings = append(m.Warnings,
				fmt.Sprintf("items %d and %d are %.1fms apart", i-1, i, gap))
		}
	}
	m.MeanGapMs = sum / float64(len(words)-1)
	return m
}

// NextDownbeat returns the offset of the first bar boundary strictly after
// the given elapsed time, used to defer bar-locked session changes.
func NextDownbeat(elapsed time.Duration, sess domain.SessionState) time.Duration {
	barMs := sess.BarMs()
	if barMs <= 0 {
		return elapsed
	}
	bar := time.Duration(barMs * float64(time.Millisecond))
	bars := elapsed/bar + 1
	return bars * bar
}
