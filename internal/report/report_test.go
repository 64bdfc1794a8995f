package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowShop/internal/bench"
	"flowShop/internal/hho"
)

func TestConvergence(t *testing.T) {
	stats := hho.Statistics{
		BestMakespanHistory:   []int{120, 115, 115, 109},
		DiversityHistory:      []float64{6.1, 5.4, 4.9, 4.2},
		AverageFitnessHistory: []float64{0.007, 0.008, 0.008, 0.009},
	}
	var buf bytes.Buffer
	require.NoError(t, Convergence(&buf, stats, "Random_10x5"))

	html := buf.String()
	assert.Contains(t, html, "Random_10x5")
	assert.Contains(t, html, "best makespan")
	assert.Contains(t, html, "diversity")
	assert.Contains(t, html, "Random_10x5: average fitness")
	assert.Equal(t, 3, strings.Count(html, "echarts.init("))
}

func TestConvergenceEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Convergence(&buf, hho.Statistics{}, "x"), ErrNoHistory)
	assert.ErrorIs(t, Comparison(&buf, nil, "x"), ErrNoHistory)
}

func TestComparisonToFile(t *testing.T) {
	records := []bench.Record{
		{Algo: "HHO", Jobs: 20, Machines: 5, MakespanMean: 1300},
		{Algo: "LS", Jobs: 20, Machines: 5, MakespanMean: 1350},
	}
	path := filepath.Join(t.TempDir(), "plots", "cmp.html")
	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		return Comparison(w, records, "comparison")
	}))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "20x5")
	assert.Contains(t, string(body), "HHO")
}
