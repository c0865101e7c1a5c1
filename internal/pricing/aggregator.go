package pricing

import (
	"slices"
)

const (
	// LabelLayout formats chart labels, e.g. "Mar 7".
	LabelLayout = "Jan 2"
	// LongLabelLayout is used for windows of a year or more, where the same
	// month and day can occur twice.
	LongLabelLayout = "Jan 2, 2006"
)

// labelLayout picks a layout under which distinct days in the window get
// distinct labels.
func labelLayout(windowDays int) string {
	if windowDays >= 365 {
		return LongLabelLayout
	}
	return LabelLayout
}

// Aggregator reshapes raw price points into chart series.
type Aggregator struct {
	clock Clock
}

func NewAggregator(clock Clock) *Aggregator {
	return &Aggregator{clock: clock}
}

// Build keeps the points dated within the last windowDays and lays them out
// by day label. Labels are in first-seen order scanning by ascending date.
// A source with two points on one label keeps the later one.
func (a *Aggregator) Build(points []PricePoint, windowDays int) ChartSeries {
	cutoff := a.clock().AddDate(0, 0, -windowDays)
	layout := labelLayout(windowDays)

	inWindow := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if !p.Date.Before(cutoff) {
			inWindow = append(inWindow, p)
		}
	}
	slices.SortStableFunc(inWindow, func(x, y PricePoint) int {
		return x.Date.Compare(y.Date)
	})

	out := ChartSeries{Labels: []string{}, Series: map[Source][]Price{}}
	index := map[string]int{}
	for _, p := range inWindow {
		label := p.Date.Format(layout)
		i, seen := index[label]
		if !seen {
			i = len(out.Labels)
			index[label] = i
			out.Labels = append(out.Labels, label)
			for src, vals := range out.Series {
				out.Series[src] = pad(vals, len(out.Labels))
			}
		}
		vals := pad(out.Series[p.Source], len(out.Labels))
		vals[i] = p.Price
		out.Series[p.Source] = vals
	}
	return out
}

func pad(vals []Price, n int) []Price {
	for len(vals) < n {
		vals = append(vals, 0)
	}
	return vals
}
