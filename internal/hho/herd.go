package hho

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/stat"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

var (
	// ErrEmptyHerd возвращается при обращении к пустому табуну.
	ErrEmptyHerd = errors.New("hho: табун пуст")
	// ErrNotInitialized возвращается, если запрошен результат до инициализации.
	ErrNotInitialized = errors.New("hho: алгоритм не инициализирован")
)

const (
	tournamentSize   = 3
	maxParentRetries = 10
)

// Herd — табун фиксированного размера и его лидер.
// Лидер хранится отдельной копией, поэтому его качество не убывает.
type Herd struct {
	inst   *flowshop.Instance
	size   int
	horses []*Horse
	leader *Horse

	diversity  float64
	generation int

	rng *rng.Source
	log logr.Logger
}

func NewHerd(inst *flowshop.Instance, size int, r *rng.Source, log logr.Logger) (*Herd, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if size <= 0 {
		return nil, fmt.Errorf("размер табуна должен быть > 0 (получено %d)", size)
	}
	if r == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Herd{
		inst:   inst,
		size:   size,
		horses: make([]*Horse, 0, size),
		rng:    r,
		log:    log,
	}, nil
}

func (h *Herd) Size() int          { return h.size }
func (h *Herd) Len() int           { return len(h.horses) }
func (h *Herd) Diversity() float64 { return h.diversity }
func (h *Herd) Generation() int    { return h.generation }
func (h *Herd) NextGeneration()    { h.generation++ }

// Horse возвращает лошадь по индексу.
func (h *Herd) Horse(i int) (*Horse, error) {
	if i < 0 || i >= len(h.horses) {
		return nil, fmt.Errorf("%w: лошадь %d вне [0,%d)", flowshop.ErrOutOfRange, i, len(h.horses))
	}
	return h.horses[i], nil
}

// Leader возвращает копию лучшей лошади за всю историю табуна или nil до инициализации.
func (h *Herd) Leader() *Horse { return h.leader }

func (h *Herd) randomHorse() (*Horse, error) {
	s, err := flowshop.RandomSolution(h.inst, h.rng)
	if err != nil {
		return nil, err
	}
	return NewHorse(s), nil
}

// Initialize заполняет табун: round(size*randomRatio) случайных лошадей,
// остальные жадные, причём i-я жадная лошадь мутирует с вероятностью 0.1*i.
func (h *Herd) Initialize(randomRatio float64) error {
	if err := checkRate("доля случайной инициализации", randomRatio); err != nil {
		return err
	}
	h.horses = h.horses[:0]
	h.leader = nil
	h.generation = 0

	numRandom := int(math.Round(float64(h.size) * randomRatio))
	numGreedy := h.size - numRandom
	h.log.V(1).Info("инициализация табуна", "random", numRandom, "greedy", numGreedy)

	for i := 0; i < numRandom; i++ {
		horse, err := h.randomHorse()
		if err != nil {
			return err
		}
		h.horses = append(h.horses, horse)
	}
	for i := 0; i < numGreedy; i++ {
		s, err := flowshop.GreedySolution(h.inst)
		if err != nil {
			return err
		}
		horse := NewHorse(s)
		if i > 0 {
			if err := horse.Mutate(math.Min(1, 0.1*float64(i)), h.rng); err != nil {
				return err
			}
		}
		h.horses = append(h.horses, horse)
	}

	h.UpdateLeader()
	h.CalculateDiversity()
	return nil
}

// BestAgent возвращает лошадь табуна с лучшим личным рекордом.
func (h *Herd) BestAgent() (*Horse, error) {
	if len(h.horses) == 0 {
		return nil, ErrEmptyHerd
	}
	best := h.horses[0]
	for _, horse := range h.horses[1:] {
		if horse.bestFitness > best.bestFitness {
			best = horse
		}
	}
	return best, nil
}

// BestSolution возвращает копию рекорда лидера.
func (h *Herd) BestSolution() (*flowshop.Solution, error) {
	if len(h.horses) == 0 {
		return nil, ErrEmptyHerd
	}
	if h.leader == nil {
		return nil, ErrNotInitialized
	}
	return h.leader.best.Clone(), nil
}

// UpdateLeader заменяет лидера, если лучшая лошадь строго лучше него,
// и переставляет флаг лидерства на первую лошадь с тем же рекордом.
func (h *Herd) UpdateLeader() bool {
	best, err := h.BestAgent()
	if err != nil {
		return false
	}

	changed := false
	if h.leader == nil || best.bestFitness > h.leader.bestFitness {
		h.leader = best.Clone()
		h.leader.leader = true
		changed = true
		h.log.V(4).Info("новый лидер", "makespan", h.leader.BestMakespan())
	}

	for _, horse := range h.horses {
		horse.leader = false
	}
	target := h.leader.BestMakespan()
	for _, horse := range h.horses {
		if horse.BestMakespan() == target {
			horse.leader = true
			break
		}
	}
	return changed
}

// CalculateDiversity — среднее по парам нормированное расстояние Хэмминга
// между текущими решениями.
func (h *Herd) CalculateDiversity() float64 {
	if len(h.horses) < 2 {
		h.diversity = 0
		return 0
	}
	n := float64(h.inst.Jobs)
	total := 0.0
	pairs := 0
	for i := 0; i < len(h.horses); i++ {
		for j := i + 1; j < len(h.horses); j++ {
			total += float64(h.horses[i].current.DistanceTo(h.horses[j].current)) / n
			pairs++
		}
	}
	h.diversity = total / float64(pairs)
	return h.diversity
}

func (h *Herd) finishPhase(phase string, improved int) {
	if improved > 0 {
		h.UpdateLeader()
	}
	h.log.V(2).Info("фаза завершена", "phase", phase, "improved", improved)
}

func (h *Herd) PerformGrazing(intensity float64) (int, error) {
	improved := 0
	for _, horse := range h.horses {
		ok, err := horse.Graze(intensity, h.rng)
		if err != nil {
			return improved, err
		}
		if ok {
			improved++
		}
	}
	h.finishPhase("grazing", improved)
	return improved, nil
}

// PerformRoaming: каждая лошадь с вероятностью roamingRate блуждает,
// результат принимается только при строгом улучшении.
func (h *Herd) PerformRoaming(roamingRate, explorationRate float64) (int, error) {
	if err := checkRate("вероятность блуждания", roamingRate); err != nil {
		return 0, err
	}
	improved := 0
	for _, horse := range h.horses {
		if !h.rng.Bool(roamingRate) {
			continue
		}
		s, err := horse.Roam(explorationRate, h.rng)
		if err != nil {
			return improved, err
		}
		if s.Makespan() < horse.Makespan() {
			horse.SetSolution(s)
			improved++
		}
	}
	h.finishPhase("roaming", improved)
	return improved, nil
}

func (h *Herd) PerformFollowing(followingRate float64) (int, error) {
	if h.leader == nil {
		return 0, ErrNotInitialized
	}
	improved := 0
	for _, horse := range h.horses {
		if horse.leader {
			continue
		}
		s, err := horse.FollowLeader(h.leader, followingRate, h.rng)
		if err != nil {
			return improved, err
		}
		if s.Makespan() < horse.Makespan() {
			horse.SetSolution(s)
			improved++
		}
	}
	h.finishPhase("following", improved)
	return improved, nil
}

// PerformMating проводит round(size*matingRate/2) спариваний; потомок
// заменяет текущее решение худшей лошади, если строго лучше него.
func (h *Herd) PerformMating(matingRate, crossoverRate float64) (int, error) {
	if err := checkRate("доля спариваний", matingRate); err != nil {
		return 0, err
	}
	if len(h.horses) == 0 {
		return 0, ErrEmptyHerd
	}
	matings := int(math.Round(float64(len(h.horses)) * matingRate / 2))
	improved := 0
	for i := 0; i < matings; i++ {
		p1, err := h.TournamentSelect(tournamentSize)
		if err != nil {
			return improved, err
		}
		p2, err := h.TournamentSelect(tournamentSize)
		if err != nil {
			return improved, err
		}
		for try := 0; p2 == p1 && len(h.horses) > 1; try++ {
			// турнир по всему малому табуну всегда выбирает одного и того же
			if try == maxParentRetries {
				p2 = (p1 + 1 + h.rng.Intn(len(h.horses)-1)) % len(h.horses)
				break
			}
			if p2, err = h.TournamentSelect(tournamentSize); err != nil {
				return improved, err
			}
		}

		child, err := h.horses[p1].MateWith(h.horses[p2], crossoverRate, h.rng)
		if err != nil {
			return improved, err
		}
		weak := h.SelectForReplacement(1)
		if len(weak) == 0 {
			continue
		}
		if w := h.horses[weak[0]]; child.Makespan() < w.Makespan() {
			w.SetSolution(child)
			improved++
		}
	}
	h.finishPhase("mating", improved)
	return improved, nil
}

func (h *Herd) PerformMutation(mutationRate float64) (int, error) {
	improved := 0
	for _, horse := range h.horses {
		before := horse.Makespan()
		if err := horse.Mutate(mutationRate, h.rng); err != nil {
			return improved, err
		}
		if horse.Makespan() < before {
			improved++
		}
	}
	h.finishPhase("mutation", improved)
	return improved, nil
}

func (h *Herd) AgeHorses() {
	for _, horse := range h.horses {
		horse.IncreaseAge()
	}
}

// ReplaceWeakHorses заменяет round(size*rate) худших лошадей случайными.
func (h *Herd) ReplaceWeakHorses(replacementRate float64) (int, error) {
	if err := checkRate("доля замены слабых лошадей", replacementRate); err != nil {
		return 0, err
	}
	return h.replaceWorst(int(math.Round(float64(len(h.horses)) * replacementRate)))
}

func (h *Herd) replaceWorst(count int) (int, error) {
	if count <= 0 {
		return 0, nil
	}
	weak := h.SelectForReplacement(count)
	for _, idx := range weak {
		horse, err := h.randomHorse()
		if err != nil {
			return 0, err
		}
		h.horses[idx] = horse
	}
	h.UpdateLeader()
	h.log.V(2).Info("замена слабых лошадей", "count", len(weak))
	return len(weak), nil
}

// RejuvenateStagnantHorses омолаживает застоявшихся лошадей и выдаёт им
// новое случайное решение (личный рекорд тоже сбрасывается).
func (h *Herd) RejuvenateStagnantHorses(maxStagnation int) (int, error) {
	count := 0
	for _, horse := range h.horses {
		if !horse.IsStagnant(maxStagnation) {
			continue
		}
		horse.Rejuvenate(h.rng)
		s, err := flowshop.RandomSolution(h.inst, h.rng)
		if err != nil {
			return count, err
		}
		horse.reset(s)
		count++
	}
	h.finishPhase("rejuvenation", count)
	return count, nil
}

// ImproveElite сортирует табун по убыванию приспособленности и применяет
// интенсивный выпас (0.9) к первым count лошадям.
func (h *Herd) ImproveElite(count int) (int, error) {
	if count < 0 {
		return 0, fmt.Errorf("%w: число элитных лошадей %d < 0", flowshop.ErrOutOfRange, count)
	}
	sort.SliceStable(h.horses, func(a, b int) bool {
		return h.horses[a].fitness > h.horses[b].fitness
	})
	count = min(count, len(h.horses))
	improved := 0
	for _, horse := range h.horses[:count] {
		before := horse.BestMakespan()
		if _, err := horse.Graze(0.9, h.rng); err != nil {
			return improved, err
		}
		if horse.BestMakespan() < before {
			improved++
		}
	}
	h.finishPhase("elite", improved)
	return improved, nil
}

// TournamentSelect выбирает без возвращения k лошадей и возвращает
// индекс лучшей по личному рекорду.
func (h *Herd) TournamentSelect(k int) (int, error) {
	if len(h.horses) == 0 {
		return 0, ErrEmptyHerd
	}
	k = max(1, min(k, len(h.horses)))
	cand, err := h.rng.Sample(len(h.horses), k)
	if err != nil {
		return 0, err
	}
	best := cand[0]
	for _, idx := range cand[1:] {
		if h.horses[idx].bestFitness > h.horses[best].bestFitness {
			best = idx
		}
	}
	return best, nil
}

// SelectForReplacement возвращает индексы count худших лошадей
// (по возрастанию личного рекорда).
func (h *Herd) SelectForReplacement(count int) []int {
	idx := make([]int, len(h.horses))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return h.horses[idx[a]].bestFitness < h.horses[idx[b]].bestFitness
	})
	return idx[:min(max(count, 0), len(idx))]
}

// AverageFitness возвращает среднее личных рекордов.
func (h *Herd) AverageFitness() (float64, error) {
	if len(h.horses) == 0 {
		return 0, ErrEmptyHerd
	}
	values := make([]float64, len(h.horses))
	for i, horse := range h.horses {
		values[i] = horse.bestFitness
	}
	return stat.Mean(values, nil), nil
}

func (h *Herd) WorstFitness() (float64, error) {
	if len(h.horses) == 0 {
		return 0, ErrEmptyHerd
	}
	worst := h.horses[0].bestFitness
	for _, horse := range h.horses[1:] {
		worst = math.Min(worst, horse.bestFitness)
	}
	return worst, nil
}

// Summary — краткая сводка состояния табуна.
func (h *Herd) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Поколение: %d\n", h.generation)
	fmt.Fprintf(&b, "Размер табуна: %d\n", len(h.horses))
	if best, err := h.BestAgent(); err == nil {
		fmt.Fprintf(&b, "Лучший makespan: %d\n", best.BestMakespan())
	}
	if avg, err := h.AverageFitness(); err == nil {
		fmt.Fprintf(&b, "Средняя приспособленность: %.2f\n", avg)
	}
	if worst, err := h.WorstFitness(); err == nil {
		fmt.Fprintf(&b, "Худшая приспособленность: %.2f\n", worst)
	}
	fmt.Fprintf(&b, "Разнообразие: %.4f", h.diversity)
	if h.leader != nil {
		fmt.Fprintf(&b, "\nMakespan лидера: %d", h.leader.BestMakespan())
	}
	return b.String()
}

// Details — таблица по каждой лошади.
func (h *Herd) Details() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%5s%12s%15s%8s%10s%12s\n", "ID", "Makespan", "Best", "Age", "Leader", "Stagnation")
	for i, horse := range h.horses {
		leader := "no"
		if horse.leader {
			leader = "yes"
		}
		fmt.Fprintf(&b, "%5d%12d%15d%8.1f%10s%12d\n",
			i, horse.Makespan(), horse.BestMakespan(), horse.age, leader, horse.stagnation)
	}
	return b.String()
}
