package main

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowShop/internal/hho"
)

func TestPrintHerd(t *testing.T) {
	var buf bytes.Buffer
	printHerd(&buf, nil)
	assert.Empty(t, buf.String())

	inst, err := loadInstance("", 6, 3, 1, 20, rand.New(rand.NewSource(1)))
	require.NoError(t, err)

	cfg := hho.DefaultConfig()
	cfg.PopulationSize = 4
	cfg.MaxIterations = 3
	solver, err := hho.New(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)
	_, err = solver.Optimize(context.Background(), inst)
	require.NoError(t, err)

	printHerd(&buf, solver.Herd())
	out := buf.String()
	assert.Contains(t, out, "Размер табуна: 4")
	assert.Contains(t, out, "Makespan лидера")
	assert.Contains(t, out, "Stagnation")
}
