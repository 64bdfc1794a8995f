// Package report renders run histories as HTML charts.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"flowShop/internal/bench"
	"flowShop/internal/hho"
)

var ErrNoHistory = errors.New("report: empty history")

func lineChart(title, yName string) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "iteration"}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: yName,
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)
	return line
}

func iterationAxis(n int) []string {
	xs := make([]string, n)
	for i := range xs {
		xs[i] = strconv.Itoa(i)
	}
	return xs
}

func intSeries(values []int) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func floatSeries(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

// Convergence writes a page with three line charts per iteration: the best
// makespan, the herd diversity and the mean fitness of the herd.
func Convergence(w io.Writer, stats hho.Statistics, title string) error {
	n := len(stats.BestMakespanHistory)
	if n == 0 {
		return ErrNoHistory
	}
	xs := iterationAxis(n)

	best := lineChart(title, "makespan")
	best.SetXAxis(xs).
		AddSeries("best makespan", intSeries(stats.BestMakespanHistory)).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	diversity := lineChart(fmt.Sprintf("%s: diversity", title), "mean distance")
	diversity.SetXAxis(xs).
		AddSeries("diversity", floatSeries(stats.DiversityHistory)).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	// fitness is on the makespan scale and needs its own axis
	fitness := lineChart(fmt.Sprintf("%s: average fitness", title), "fitness")
	fitness.SetXAxis(xs).
		AddSeries("average fitness", floatSeries(stats.AverageFitnessHistory)).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}),
		)

	page := components.NewPage()
	page.SetPageTitle(title)
	page.AddCharts(best, diversity, fitness)
	return page.Render(w)
}

// Comparison writes a grouped bar chart of the mean makespan of every
// algorithm per problem size.
func Comparison(w io.Writer, records []bench.Record, title string) error {
	if len(records) == 0 {
		return ErrNoHistory
	}

	var sizes, algos []string
	seenSize := map[string]bool{}
	seenAlgo := map[string]bool{}
	means := map[string]map[string]float64{}
	for _, r := range records {
		size := fmt.Sprintf("%dx%d", r.Jobs, r.Machines)
		if !seenSize[size] {
			seenSize[size] = true
			sizes = append(sizes, size)
		}
		if !seenAlgo[r.Algo] {
			seenAlgo[r.Algo] = true
			algos = append(algos, r.Algo)
			means[r.Algo] = map[string]float64{}
		}
		means[r.Algo][size] = r.MakespanMean
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "jobs x machines"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "mean makespan"}),
	)
	bar.SetXAxis(sizes)
	for _, a := range algos {
		data := make([]opts.BarData, len(sizes))
		for i, size := range sizes {
			data[i] = opts.BarData{Value: means[a][size]}
		}
		bar.AddSeries(a, data)
	}
	return bar.Render(w)
}

// WriteFile creates path (and its directory) and renders into it.
func WriteFile(path string, render func(io.Writer) error) error {
	if d := filepath.Dir(path); d != "." && d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
