package tess

import (
	"fmt"
	gomath "math"

	"github.com/Faultbox/quadtess/pkg/math"
)

const (
	// MaxLift is the widest transition band a side may have.
	MaxLift = 0.49
	// collapseLimit is the largest combined width of two opposite bands.
	collapseLimit = 0.999
)

// ResolveLift returns the transition band width of each side.
//
// A supplied lift is clamped per component to [0, MaxLift]. Otherwise a
// uniform width is derived so that it shrinks as either the edge rates or
// the inner grid grow, keeping inner cells and stitch triangles comparable
// in size.
func ResolveLift(edge [4]int, inner [2]int, lift *[4]float64) [4]float64 {
	if lift != nil {
		var res [4]float64
		for i, l := range lift {
			res[i] = math.Clamp(l, 0, MaxLift)
		}
		return res
	}

	l := math.Clamp(derivedLift(edge, inner), 0, MaxLift)
	return [4]float64{l, l, l, l}
}

func derivedLift(edge [4]int, inner [2]int) float64 {
	iu, iv := inner[0], inner[1]
	denom := edge[Bottom] + edge[Right] + edge[Top] + edge[Left] + 2*(iu+iv)
	if denom <= 0 {
		return 0
	}
	t := float64(2*iu*iv) / float64(denom)
	return (1 - gomath.Sqrt(gomath.Max(0, 1-1/(t+1)))) / 2
}

// Resolve validates p and fixes its transition bands.
//
// ErrCollapsedRegion is returned when two opposite bands, as requested by
// the caller or as derived, add up to collapseLimit or more.
func Resolve(p Params) (ResolvedParams, error) {
	for _, s := range Sides {
		if p.Edge[s] < 0 {
			return ResolvedParams{}, fmt.Errorf("%w: negative %s edge rate %d", ErrInvalidParams, s, p.Edge[s])
		}
	}
	if p.Inner[0] < 0 || p.Inner[1] < 0 {
		return ResolvedParams{}, fmt.Errorf("%w: negative inner grid %dx%d", ErrInvalidParams, p.Inner[0], p.Inner[1])
	}

	requested := [4]float64{}
	if p.Lift != nil {
		requested = *p.Lift
		for _, s := range Sides {
			if gomath.IsNaN(requested[s]) {
				return ResolvedParams{}, fmt.Errorf("%w: %s lift is NaN", ErrInvalidParams, s)
			}
		}
	}
	lift := ResolveLift(p.Edge, p.Inner, p.Lift)
	if p.Lift == nil {
		requested = lift
	}

	if sum := requested[Left] + requested[Right]; sum >= collapseLimit {
		return ResolvedParams{}, fmt.Errorf("%w: left+right lift %.4f >= %.3f", ErrCollapsedRegion, sum, collapseLimit)
	}
	if sum := requested[Bottom] + requested[Top]; sum >= collapseLimit {
		return ResolvedParams{}, fmt.Errorf("%w: bottom+top lift %.4f >= %.3f", ErrCollapsedRegion, sum, collapseLimit)
	}

	return ResolvedParams{
		Edge:          p.Edge,
		Inner:         p.Inner,
		Lift:          lift,
		I0PreferLower: p.I0PreferLower,
	}, nil
}
