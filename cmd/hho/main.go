package main

import (
	"context"
	goflag "flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"flowShop/internal/config"
	"flowShop/internal/flowshop"
	"flowShop/internal/hho"
	"flowShop/internal/report"
	"flowShop/internal/rng"
)

func main() {
	var (
		cfgPath    = pflag.StringP("config", "c", "", "YAML-файл с параметрами алгоритма (переменные "+config.EnvPrefix+"* имеют приоритет)")
		file       = pflag.StringP("file", "f", "", "файл экземпляра задачи (.txt или .yaml)")
		jobs       = pflag.IntP("jobs", "j", 20, "количество работ для случайного экземпляра")
		machines   = pflag.IntP("machines", "m", 5, "количество машин для случайного экземпляра")
		minTime    = pflag.Int("min_time", 1, "минимальное время обработки случайного экземпляра")
		maxTime    = pflag.Int("max_time", 99, "максимальное время обработки случайного экземпляра")
		seed       = pflag.Int64P("seed", "s", 0, "сид генератора; 0 — от текущего времени")
		target     = pflag.Int("target", 0, "остановиться при makespan <= target; 0 — без цели")
		population = pflag.IntP("population", "p", 0, "размер табуна (переопределяет конфигурацию)")
		iterations = pflag.IntP("iterations", "i", 0, "максимум итераций (переопределяет конфигурацию)")
		static     = pflag.Bool("static", false, "отключить адаптивное управление параметрами")
		timeout    = pflag.Duration("timeout", 0, "ограничение времени запуска; 0 — без ограничения")

		resultsOut  = pflag.StringP("output", "o", "", "файл для отчёта о результате")
		statsOut    = pflag.String("stats", "", "CSV-файл с историей итераций")
		plotOut     = pflag.String("plot", "", "HTML-файл с графиком сходимости")
		instanceOut = pflag.String("save_instance", "", "сохранить экземпляр задачи (.txt или .yaml)")
		saveConfig  = pflag.String("save_config", "", "сохранить итоговую конфигурацию в YAML")
		details     = pflag.Bool("details", false, "вывести времена завершения лучшего решения")
		herdInfo    = pflag.Bool("herd", false, "вывести сводку табуна и состояние каждой лошади")
	)
	klog.InitFlags(nil)
	pflag.CommandLine.AddGoFlagSet(goflag.CommandLine)
	pflag.Parse()
	defer klog.Flush()

	logger := klog.NewKlogr()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}
	if pflag.CommandLine.Changed("population") {
		cfg.PopulationSize = *population
	}
	if pflag.CommandLine.Changed("iterations") {
		cfg.MaxIterations = *iterations
	}
	if *static {
		cfg.AdaptiveParameters = false
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}
	if *saveConfig != "" {
		if err := config.Save(*saveConfig, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при сохранении конфигурации:", err)
			os.Exit(1)
		}
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(*seed))

	inst, err := loadInstance(*file, *jobs, *machines, *minTime, *maxTime, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Ошибка загрузки экземпляра:", err)
		os.Exit(2)
	}
	if *instanceOut != "" {
		if err := flowshop.SaveFile(*instanceOut, inst); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при сохранении экземпляра:", err)
			os.Exit(1)
		}
	}

	solver, err := hho.New(cfg, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Конфликт в конфигурации:", err)
		os.Exit(2)
	}
	solver.Logger = logger

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	total := 0
	for j := 0; j < inst.Jobs; j++ {
		total += inst.TotalTime(j)
	}
	fmt.Printf("Экземпляр %s: %d работ, %d машин, суммарное время %s\n",
		inst.Name, inst.Jobs, inst.Machines, humanize.Comma(int64(total)))
	fmt.Printf("Табун: %d лошадей, до %s итераций, сид %d\n",
		cfg.PopulationSize, humanize.Comma(int64(cfg.MaxIterations)), *seed)

	var best *flowshop.Solution
	if *target > 0 {
		best, err = solver.OptimizeToTarget(ctx, inst, *target, 0)
	} else {
		best, err = solver.Optimize(ctx, inst)
	}
	if best == nil {
		fmt.Fprintln(os.Stderr, "Ошибка:", err)
		os.Exit(1)
	}
	if err != nil {
		logger.Info("запуск прерван, выводится лучшее найденное решение", "reason", err)
	}

	stats := solver.Statistics()
	fmt.Printf("\nЛучший makespan: %s (итераций %s, время %s)\n",
		humanize.Comma(int64(best.Makespan())),
		humanize.Comma(int64(stats.IterationsExecuted)),
		stats.Duration.Round(time.Millisecond))
	fmt.Println("Последовательность:", best)
	fmt.Println(stats)
	if *details {
		fmt.Println()
		fmt.Print(best.FormatCompletionTimes())
	}
	if *herdInfo {
		printHerd(os.Stdout, solver.Herd())
	}

	if *resultsOut != "" {
		if err := report.WriteFile(*resultsOut, solver.WriteResults); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при записи результатов:", err)
			os.Exit(1)
		}
	}
	if *statsOut != "" {
		if err := report.WriteFile(*statsOut, stats.WriteCSV); err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при записи в CSV:", err)
			os.Exit(1)
		}
	}
	if *plotOut != "" {
		err := report.WriteFile(*plotOut, func(w io.Writer) error {
			return report.Convergence(w, stats, inst.Name)
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Ошибка при построении графика:", err)
			os.Exit(1)
		}
	}
}

func loadInstance(path string, jobs, machines, minTime, maxTime int, r *rand.Rand) (*flowshop.Instance, error) {
	if path != "" {
		return flowshop.LoadFile(path)
	}
	return flowshop.RandomInstance(jobs, machines, minTime, maxTime, rng.FromRand(r))
}

// printHerd выводит сводку табуна и таблицу лошадей.
func printHerd(w io.Writer, h *hho.Herd) {
	if h == nil {
		return
	}
	fmt.Fprintf(w, "\n%s\n\n%s", h.Summary(), h.Details())
}
