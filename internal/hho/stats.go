package hho

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Statistics — счётчики и история одного запуска.
type Statistics struct {
	IterationsExecuted int
	TotalImprovements  int
	LeaderChanges      int
	Rejuvenations      int
	Replacements       int
	Duration           time.Duration

	BestMakespanHistory   []int
	DiversityHistory      []float64
	AverageFitnessHistory []float64
}

// Clone возвращает копию, не разделяющую срезы истории.
func (s Statistics) Clone() Statistics {
	c := s
	c.BestMakespanHistory = append([]int(nil), s.BestMakespanHistory...)
	c.DiversityHistory = append([]float64(nil), s.DiversityHistory...)
	c.AverageFitnessHistory = append([]float64(nil), s.AverageFitnessHistory...)
	return c
}

func (s *Statistics) record(bestMakespan int, diversity, avgFitness float64) {
	s.BestMakespanHistory = append(s.BestMakespanHistory, bestMakespan)
	s.DiversityHistory = append(s.DiversityHistory, diversity)
	s.AverageFitnessHistory = append(s.AverageFitnessHistory, avgFitness)
}

// FinalMakespan — последнее значение истории или 0, если она пуста.
func (s Statistics) FinalMakespan() int {
	if len(s.BestMakespanHistory) == 0 {
		return 0
	}
	return s.BestMakespanHistory[len(s.BestMakespanHistory)-1]
}

// WriteCSV пишет историю в формате Iteration,BestMakespan,Diversity,AverageFitness.
func (s Statistics) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"Iteration", "BestMakespan", "Diversity", "AverageFitness"}); err != nil {
		return err
	}
	for i, ms := range s.BestMakespanHistory {
		div, avg := 0.0, 0.0
		if i < len(s.DiversityHistory) {
			div = s.DiversityHistory[i]
		}
		if i < len(s.AverageFitnessHistory) {
			avg = s.AverageFitnessHistory[i]
		}
		row := []string{
			strconv.Itoa(i),
			strconv.Itoa(ms),
			strconv.FormatFloat(div, 'g', -1, 64),
			strconv.FormatFloat(avg, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s Statistics) String() string {
	var b strings.Builder
	b.WriteString("Статистика HHO:\n")
	fmt.Fprintf(&b, "  Выполнено итераций: %d\n", s.IterationsExecuted)
	fmt.Fprintf(&b, "  Улучшений: %d\n", s.TotalImprovements)
	fmt.Fprintf(&b, "  Смен лидера: %d\n", s.LeaderChanges)
	fmt.Fprintf(&b, "  Омоложений: %d\n", s.Rejuvenations)
	fmt.Fprintf(&b, "  Замен: %d\n", s.Replacements)
	fmt.Fprintf(&b, "  Время: %s", s.Duration.Round(time.Microsecond))
	if len(s.BestMakespanHistory) > 0 {
		best := s.BestMakespanHistory[0]
		for _, v := range s.BestMakespanHistory {
			best = min(best, v)
		}
		fmt.Fprintf(&b, "\n  Лучший makespan: %d", best)
		fmt.Fprintf(&b, "\n  Итоговый makespan: %d", s.FinalMakespan())
	}
	if len(s.DiversityHistory) > 1 {
		mean, std := stat.MeanStdDev(s.DiversityHistory, nil)
		fmt.Fprintf(&b, "\n  Разнообразие: среднее=%.4f σ=%.4f", mean, std)
	}
	return b.String()
}
