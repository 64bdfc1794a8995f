package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/go-logr/logr"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"flowShop/internal/bench"
	"flowShop/internal/config"
	"flowShop/internal/hho"
	"flowShop/internal/opt"
	"flowShop/internal/report"
)

// Фабрики

func newHHOFactory(cfg hho.Config, log logr.Logger) func(seed int64) (opt.Optimizer, error) {
	return func(seed int64) (opt.Optimizer, error) {
		solver, err := hho.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			return nil, err
		}
		solver.Logger = log
		return solver, nil
	}
}

func newLSFactory(maxRounds int) func(seed int64) (opt.Optimizer, error) {
	return func(int64) (opt.Optimizer, error) {
		return bench.LocalSearch{MaxRounds: maxRounds}, nil
	}
}

func main() {
	// CLI флаги для настройки параметров алгоритмов и политики запуска
	var (
		out          = pflag.String("out", "artifacts/results.csv", "путь к выходному CSV-файлу")
		plot         = pflag.String("plot", "", "HTML-файл со сравнительной диаграммой; пусто — не строить")
		pairs        = pflag.String("pairs", "20x5,50x10,100x20", "конфигурации: количество работ Х количество станков (через запятую)")
		algos        = pflag.String("algos", "HHO,HHO-static,LS", "список алгоритмов: HHO, HHO-static, LS (через запятую)")
		runs         = pflag.Int("runs", 30, "количество запусков каждого алгоритма (с разными сидами)")
		baseSeed     = pflag.Int64("seed", 1000, "базовый сид для запусков алгоритмов")
		instanceSeed = pflag.Int64("instance_seed", 777, "базовый сид для генерации экземпляров задачи (фиксирован для конфигурации)")
		perRunTO     = pflag.Duration("per_run_timeout", 0, "таймаут одного запуска; 0 — без ограничения")

		// --- Табун лошадей ---
		cfgPath = pflag.String("hho_config", "", "YAML-файл с параметрами HHO (переменные "+config.EnvPrefix+"* имеют приоритет)")
		hhoPop  = pflag.Int("hho_pop", 0, "размер табуна (0 — из конфигурации)")
		hhoIter = pflag.Int("hho_iter", 0, "максимум итераций (0 — из конфигурации)")

		// --- Локальный поиск ---
		lsRounds = pflag.Int("ls_rounds", 0, "максимум улучшающих ходов (0 — до локального оптимума)")
	)
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	pflag.Parse()
	defer klog.Flush()

	logger := klog.NewKlogr()
	ctx := context.Background()

	cases, err := parsePairs(*pairs, *instanceSeed)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт:", err)
		os.Exit(2)
	}

	hhoCfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации табуна лошадей:", err)
		os.Exit(2)
	}
	if *hhoPop > 0 {
		hhoCfg.PopulationSize = *hhoPop
	}
	if *hhoIter > 0 {
		hhoCfg.MaxIterations = *hhoIter
	}
	if err := hhoCfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации табуна лошадей:", err)
		os.Exit(2)
	}
	staticCfg := hhoCfg
	staticCfg.AdaptiveParameters = false

	if *lsRounds < 0 {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации локального поиска: ls_rounds должно быть >= 0")
		os.Exit(2)
	}

	solverLog := logger.WithName("hho")
	available := map[string]bench.Algorithm{
		"HHO":        {Name: "HHO", Factory: newHHOFactory(hhoCfg, solverLog)},
		"HHO-static": {Name: "HHO-static", Factory: newHHOFactory(staticCfg, solverLog)},
		"LS":         {Name: "LS", Factory: newLSFactory(*lsRounds)},
	}

	var selected []bench.Algorithm
	for _, a := range splitCSV(*algos) {
		al, ok := available[a]
		if !ok {
			fmt.Fprintf(os.Stderr, "Алгоритм не предоставлен в программе %q; доступные: %v\n", a, keys(available))
			os.Exit(2)
		}
		selected = append(selected, al)
	}

	runner := bench.NewRunner(*runs, *baseSeed, *perRunTO)
	runner.Log = logger.WithName("bench")

	var records []bench.Record
	for _, c := range cases {
		for _, a := range selected {
			fmt.Printf("Запущен алгоритм %s; %d работ %d машин (общее кол-во запусков=%d)...\n", a.Name, c.Jobs, c.Machines, runner.Runs)

			rec, err := runner.RunCase(ctx, c, a)
			if err != nil {
				fmt.Fprintln(os.Stderr, "Ошибка:", err)
				os.Exit(1)
			}
			records = append(records, rec)

			fmt.Printf("  Значение целевой функции: лучшее=%s среднее=%.2f стандартное отклонение=%.2f | Время: среднее=%.2fms среднее отклонение=%.2fms | Итераций в среднем: %s\n",
				humanize.Comma(int64(rec.MakespanBest)), rec.MakespanMean, rec.MakespanStd,
				rec.TimeMeanMs, rec.TimeStdMs,
				humanize.Ftoa(rec.IterationsMean),
			)
		}
	}

	if err := bench.WriteCSV(*out, records); err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
		os.Exit(1)
	}
	fmt.Println("Saved:", *out)

	if *plot != "" {
		err := report.WriteFile(*plot, func(w io.Writer) error {
			return report.Comparison(w, records, "HHO vs LS: mean makespan")
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при построении диаграммы:", err)
			os.Exit(1)
		}
		fmt.Println("Saved:", *plot)
	}
}

// helpers

func parsePairs(s string, baseInstanceSeed int64) ([]bench.Case, error) {
	parts := splitCSV(s)
	cases := make([]bench.Case, 0, len(parts))

	for i, p := range parts {
		jm := strings.Split(p, "x")
		if len(jm) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 50x10", p)
		}
		jobs, err := atoiStrict(jm[0])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества работ: %w", p, err)
		}
		machines, err := atoiStrict(jm[1])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества машин: %w", p, err)
		}
		if jobs <= 0 || machines <= 0 {
			return nil, fmt.Errorf("пара %q: количество работ и машин должно быть > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(jobs)*100 + int64(machines)

		cases = append(cases, bench.Case{
			Jobs:         jobs,
			Machines:     machines,
			InstanceSeed: seed,
		})
	}

	return cases, nil
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func atoiStrict(s string) (int, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	return v, nil
}

func keys(m map[string]bench.Algorithm) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
