// Package highlight assigns stable colors to a filtered subset of events.
//
// The Assigner itself is immutable. Everything carried between calls lives
// in the State returned by Apply, which the caller passes back on the next
// call; the same sequence of calls therefore always yields the same colors.
package highlight

import (
	"fmt"
	"math"
	"slices"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"evcal/internal/dayindex"
	"evcal/internal/model"
)

// DefaultPalette is the hand-picked set drawn from before overflow colors.
var DefaultPalette = []string{
	"#e6194b", // red
	"#3cb44b", // green
	"#4363d8", // blue
	"#f58231", // orange
	"#911eb4", // purple
	"#42d4f4", // cyan
	"#f032e6", // magenta
	"#bfef45", // lime
	"#9a6324", // brown
	"#469990", // teal
}

const goldenAngle = 137.508

// maxOverflowMisses bounds how many in-use overflow colors nextColor skips
// in a row before it falls back to walking the RGB cube.
const maxOverflowMisses = 64

// rgbStride is odd, so i*rgbStride mod 2^24 visits every 24-bit color once.
const rgbStride = 0x9e3779

// OverflowFunc returns the i-th generated color as a lowercase #rrggbb string.
type OverflowFunc func(i int) string

// HSVOverflow rotates hue by the golden angle at fixed saturation and value.
func HSVOverflow(saturation, value float64) OverflowFunc {
	return func(i int) string {
		hue := math.Mod(float64(i)*goldenAngle, 360)
		return colorful.Hsv(hue, saturation, value).Hex()
	}
}

// State is the result of one Apply call.
type State struct {
	// Selected holds the filtered-in ids in canonical event order.
	Selected []string `json:"selected"`
	// ColorOf maps every selected id to its color.
	ColorOf map[string]string `json:"color_of"`
	// DayHits maps a day to the selected ids covering it, in canonical order.
	DayHits map[model.Day][]string `json:"day_hits"`
	// NextOverflow is the next index handed to the overflow generator.
	NextOverflow int `json:"next_overflow"`
}

// Empty reports whether nothing is selected.
func (s State) Empty() bool { return len(s.Selected) == 0 }

// IsSelected reports whether id is part of the selection.
func (s State) IsSelected(id string) bool {
	_, ok := s.ColorOf[id]
	return ok
}

// Assigner hands out palette colors first and overflow colors after.
type Assigner struct {
	palette  []string
	overflow OverflowFunc
}

// NewAssigner copies palette (normalized to lowercase, duplicates removed).
// A nil overflow uses HSVOverflow(0.65, 0.90).
func NewAssigner(palette []string, overflow OverflowFunc) *Assigner {
	p := make([]string, 0, len(palette))
	for _, c := range palette {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || slices.Contains(p, c) {
			continue
		}
		p = append(p, c)
	}
	if overflow == nil {
		overflow = HSVOverflow(0.65, 0.90)
	}
	return &Assigner{palette: p, overflow: overflow}
}

// Palette returns a copy of the fixed palette.
func (a *Assigner) Palette() []string { return slices.Clone(a.palette) }

// Apply filters candidates to ids present in events, keeps the colors prev
// already gave to ids that stay selected and allocates colors for the rest.
// Stale ids are dropped without error.
func (a *Assigner) Apply(prev State, candidates []string, events []model.Event) State {
	wanted := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		wanted[id] = true
	}

	sorted := slices.Clone(events)
	model.Sort(sorted)

	next := State{
		Selected:     []string{},
		ColorOf:      make(map[string]string),
		NextOverflow: prev.NextOverflow,
	}

	picked := make([]model.Event, 0, len(candidates))
	for _, ev := range sorted {
		if !wanted[ev.ID] || next.IsSelected(ev.ID) {
			continue
		}
		next.Selected = append(next.Selected, ev.ID)
		next.ColorOf[ev.ID] = ""
		picked = append(picked, ev)
	}

	inUse := make(map[string]bool, len(next.Selected))
	for _, id := range next.Selected {
		if c, ok := prev.ColorOf[id]; ok && c != "" && !inUse[c] {
			next.ColorOf[id] = c
			inUse[c] = true
		}
	}

	for _, id := range next.Selected {
		if next.ColorOf[id] != "" {
			continue
		}
		c := a.nextColor(inUse, &next.NextOverflow)
		next.ColorOf[id] = c
		inUse[c] = true
	}

	next.DayHits = dayHits(picked)
	return next
}

// Clear returns the empty state.
func Clear() State {
	return State{
		Selected: []string{},
		ColorOf:  map[string]string{},
		DayHits:  map[model.Day][]string{},
	}
}

func (a *Assigner) nextColor(inUse map[string]bool, overflowIdx *int) string {
	for _, c := range a.palette {
		if !inUse[c] {
			return c
		}
	}
	for range maxOverflowMisses {
		c := strings.ToLower(a.overflow(*overflowIdx))
		*overflowIdx++
		if c != "" && !inUse[c] {
			return c
		}
	}
	// The generator keeps repeating colors already taken, e.g. after its
	// rounded HSV sequence is exhausted. Every step of the walk is a distinct
	// color, so at most len(inUse) of them can be taken.
	for i := 0; ; i++ {
		c := rgbWalk(i)
		if !inUse[c] {
			return c
		}
	}
}

func rgbWalk(i int) string {
	return fmt.Sprintf("#%06x", (i*rgbStride)&0xffffff)
}

// dayHits groups the picked events exactly as dayindex does and keeps only
// their ids. picked holds each id once, so no day repeats an id.
func dayHits(picked []model.Event) map[model.Day][]string {
	ix := dayindex.Build(picked)
	hits := make(map[model.Day][]string, len(ix))
	for d := range ix {
		hits[d] = ix.IDsOn(d)
	}
	return hits
}
