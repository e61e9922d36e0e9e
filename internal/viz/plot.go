package viz

import (
	"github.com/guptarohit/asciigraph"
)

const (
	PlotHeight = 10
	PlotWidth  = 80
)

// Series is one named line of a plot.
type Series struct {
	Name string
	Data []float64
}

// Plot draws series on a shared axis. Empty series are skipped; the
// result is empty when nothing is left.
func Plot(caption string, series ...Series) string {
	data := make([][]float64, 0, len(series))
	names := make([]string, 0, len(series))
	for _, s := range series {
		if len(s.Data) == 0 {
			continue
		}
		data = append(data, s.Data)
		names = append(names, s.Name)
	}
	if len(data) == 0 {
		return ""
	}

	opts := []asciigraph.Option{
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(caption),
	}
	if len(data) > 1 {
		opts = append(opts,
			asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue, asciigraph.Green),
			asciigraph.SeriesLegends(names...),
		)
	}
	return asciigraph.PlotMany(data, opts...)
}
