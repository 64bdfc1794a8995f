// Package hho реализует алгоритм оптимизации табуном лошадей (Horse Herd
// Optimization) для перестановочной задачи flow-shop.
//
// Каждая итерация состоит из девяти фаз: выпас, блуждание, следование за
// лидером, спаривание, мутация, старение, замена слабых, омоложение
// застоявшихся и улучшение элиты. После них обновляются лидер и разнообразие.
package hho

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"time"

	"github.com/go-logr/logr"

	"flowShop/internal/flowshop"
	"flowShop/internal/opt"
	"flowShop/internal/rng"
)

// Solver — реализация алгоритма табуна лошадей.
type Solver struct {
	Cfg    Config
	Rng    *rng.Source
	Logger logr.Logger

	// Observer вызывается после каждой итерации. Не должен менять состояние солвера.
	Observer func(iteration int, best *flowshop.Solution, stats Statistics)
	// Terminate, если задан, полностью заменяет встроенные условия остановки.
	Terminate func(iteration int, best *flowshop.Solution) bool

	params Config
	inst   *flowshop.Instance
	herd   *Herd
	stats  Statistics
}

// New возвращает новый HHO-солвер с валидацией конфигурации.
func New(cfg Config, r *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng.FromRand(r), Logger: logr.Discard(), params: cfg}, nil
}

// SetConfig заменяет конфигурацию; табун будет пересоздан при следующем запуске.
func (s *Solver) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.Cfg = cfg
	s.params = cfg
	if s.herd != nil && s.herd.Size() != cfg.PopulationSize {
		s.herd = nil
	}
	return nil
}

// Parameters возвращает рабочие параметры текущего (или последнего) запуска,
// включая изменения адаптивного управления.
func (s *Solver) Parameters() Config { return s.params }

// Reset сбрасывает статистику и табун.
func (s *Solver) Reset() {
	s.stats = Statistics{}
	s.herd = nil
	s.params = s.Cfg
}

// Herd возвращает табун последнего запуска или nil.
func (s *Solver) Herd() *Herd { return s.herd }

// Statistics возвращает снимок статистики.
func (s *Solver) Statistics() Statistics { return s.stats.Clone() }

func (s *Solver) BestSolution() (*flowshop.Solution, error) {
	if s.herd == nil {
		return nil, ErrNotInitialized
	}
	return s.herd.BestSolution()
}

func (s *Solver) BestMakespan() (int, error) {
	best, err := s.BestSolution()
	if err != nil {
		return 0, err
	}
	return best.Makespan(), nil
}

// Optimize выполняет не более Cfg.MaxIterations итераций.
func (s *Solver) Optimize(ctx context.Context, inst *flowshop.Instance) (*flowshop.Solution, error) {
	return s.run(ctx, inst, s.Cfg.MaxIterations, nil)
}

// OptimizeIterations выполняет не более iterations итераций.
func (s *Solver) OptimizeIterations(ctx context.Context, inst *flowshop.Instance, iterations int) (*flowshop.Solution, error) {
	if iterations <= 0 {
		return nil, fmt.Errorf("количество итераций должно быть > 0 (получено %d)", iterations)
	}
	return s.run(ctx, inst, iterations, nil)
}

// OptimizeToTarget останавливается, как только лучший makespan не превышает
// target. maxIterations <= 0 означает Cfg.MaxIterations.
func (s *Solver) OptimizeToTarget(ctx context.Context, inst *flowshop.Instance, target, maxIterations int) (*flowshop.Solution, error) {
	if maxIterations <= 0 {
		maxIterations = s.Cfg.MaxIterations
	}
	return s.run(ctx, inst, maxIterations, &target)
}

// Solve — адаптер к интерфейсу opt.Optimizer.
func (s *Solver) Solve(ctx context.Context, inst *flowshop.Instance) (opt.Result, error) {
	best, err := s.Optimize(ctx, inst)
	if best == nil {
		return opt.Result{}, err
	}
	meta := map[string]any{
		"population":   s.Cfg.PopulationSize,
		"iterations":   s.Cfg.MaxIterations,
		"adaptive":     s.Cfg.AdaptiveParameters,
		"improvements": s.stats.TotalImprovements,
		"leaderChange": s.stats.LeaderChanges,
	}
	if err != nil {
		meta["stopped"] = "context"
	}
	return opt.Result{
		Permutation: best.Order(),
		Makespan:    best.Makespan(),
		Iterations:  s.stats.IterationsExecuted,
		Duration:    s.stats.Duration,
		Meta:        meta,
	}, err
}

func (s *Solver) prepare(inst *flowshop.Instance) error {
	// Проверка корректности входных данных и конфигурации
	if err := inst.Validate(); err != nil {
		return err
	}
	if err := s.Cfg.Validate(); err != nil {
		return err
	}
	if s.Rng == nil {
		return fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	herd, err := NewHerd(inst, s.Cfg.PopulationSize, s.Rng, s.Logger)
	if err != nil {
		return err
	}
	s.inst = inst
	s.herd = herd
	s.params = s.Cfg
	s.stats = Statistics{}
	return nil
}

func (s *Solver) run(ctx context.Context, inst *flowshop.Instance, limit int, target *int) (*flowshop.Solution, error) {
	start := time.Now()
	if err := s.prepare(inst); err != nil {
		return nil, err
	}
	log := s.Logger.WithValues("instance", inst.Name)
	defer func() {
		s.stats.Duration = time.Since(start)
	}()

	if err := s.herd.Initialize(s.params.RandomInitRatio); err != nil {
		return nil, err
	}
	best := s.herd.Leader().BestMakespan()
	log.V(1).Info("начальное решение", "makespan", best, "iterations", limit)

	stagnation := 0
	for it := 0; it < limit; it++ {
		// Для поддержки отмены через context
		if err := ctx.Err(); err != nil {
			sol, _ := s.herd.BestSolution()
			return sol, err
		}
		if it%10 == 0 {
			log.V(1).Info("прогресс", "iteration", it, "of", limit, "best", best)
		}

		if err := s.iterate(it); err != nil {
			return nil, err
		}
		if err := s.recordIteration(); err != nil {
			return nil, err
		}

		if cur := s.herd.Leader().BestMakespan(); cur < best {
			best = cur
			stagnation = 0
			s.stats.TotalImprovements++
			log.V(1).Info("улучшение", "iteration", it, "makespan", best)
		} else {
			stagnation++
		}

		if s.params.AdaptiveParameters {
			adaptParameters(&s.params, float64(it)/float64(limit), s.herd.Diversity(), stagnation)
		}
		s.stats.IterationsExecuted = it + 1
		s.stats.Duration = time.Since(start)

		if s.Observer != nil {
			sol, _ := s.herd.BestSolution()
			s.Observer(it, sol, s.stats.Clone())
		}
		if s.shouldStop(it, limit, stagnation, best, target) {
			log.V(1).Info("остановка", "iteration", it, "best", best)
			break
		}
		s.herd.NextGeneration()
	}

	return s.herd.BestSolution()
}

func (s *Solver) shouldStop(iteration, limit, stagnation, best int, target *int) bool {
	if target != nil {
		return best <= *target
	}
	if s.Terminate != nil {
		sol, _ := s.herd.BestSolution()
		return s.Terminate(iteration, sol)
	}
	if iteration >= limit-1 {
		return true
	}
	return stagnation >= s.params.TerminationPatience
}

// iterate выполняет девять фаз одной итерации и обновление лидера.
func (s *Solver) iterate(it int) error {
	p := &s.params
	h := s.herd

	if _, err := h.PerformGrazing(p.GrazingIntensity); err != nil {
		return err
	}
	if _, err := h.PerformRoaming(p.RoamingRate, p.ExplorationRate); err != nil {
		return err
	}
	if _, err := h.PerformFollowing(p.FollowingRate); err != nil {
		return err
	}
	if _, err := h.PerformMating(p.MatingRate, p.CrossoverRate); err != nil {
		return err
	}
	if _, err := h.PerformMutation(p.MutationRate); err != nil {
		return err
	}
	h.AgeHorses()

	if it%10 == 0 {
		n, err := h.ReplaceWeakHorses(p.ReplacementRate)
		if err != nil {
			return err
		}
		s.stats.Replacements += n
	}
	if it%p.MaxStagnation == 0 {
		n, err := h.RejuvenateStagnantHorses(p.MaxStagnation)
		if err != nil {
			return err
		}
		s.stats.Rejuvenations += n
	}
	if it%p.EliteImprovementFreq == 0 {
		if _, err := h.ImproveElite(p.EliteCount); err != nil {
			return err
		}
	}

	if h.UpdateLeader() {
		s.stats.LeaderChanges++
	}
	if div := h.CalculateDiversity(); div < p.DiversityThreshold {
		return s.preserveDiversity(div)
	}
	return nil
}

// preserveDiversity заменяет ~20% худших лошадей случайными
// и временно повышает вероятность мутации.
func (s *Solver) preserveDiversity(diversity float64) error {
	count := max(1, int(math.Round(float64(s.herd.Len())*0.2)))
	n, err := s.herd.replaceWorst(count)
	if err != nil {
		return err
	}
	s.stats.Replacements += n
	s.params.MutationRate = math.Min(0.4, s.params.MutationRate*1.5)
	s.herd.CalculateDiversity()
	s.Logger.V(2).Info("восстановление разнообразия", "diversity", diversity, "replaced", n)
	return nil
}

func (s *Solver) recordIteration() error {
	avg, err := s.herd.AverageFitness()
	if err != nil {
		return err
	}
	s.stats.record(s.herd.Leader().BestMakespan(), s.herd.Diversity(), avg)
	return nil
}

// WriteResults выводит отчёт о лучшем найденном решении.
func (s *Solver) WriteResults(w io.Writer) error {
	best, err := s.BestSolution()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w,
		"Результаты HHO для %s\n"+
			"Размер задачи: %d работ, %d машин\n"+
			"Лучший makespan: %d\n"+
			"Итераций: %d\n"+
			"Время: %s\n\n"+
			"Лучшая последовательность:\n%s\n",
		s.inst.Name, s.inst.Jobs, s.inst.Machines,
		best.Makespan(), s.stats.IterationsExecuted,
		s.stats.Duration.Round(time.Microsecond), best,
	)
	return err
}
