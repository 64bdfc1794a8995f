package hho

import (
	"fmt"
	"math"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

const (
	// значение приспособленности для вырожденного нулевого makespan
	zeroMakespanFitness = -1_000_000.0

	minAbility = 0.1
)

// fitness — монотонное преобразование makespan: чем больше, тем лучше.
func fitness(makespan int) float64 {
	if makespan > 0 {
		return -float64(makespan)
	}
	return zeroMakespanFitness
}

// Horse — агент табуна: текущее решение, личный рекорд и стареющие способности.
type Horse struct {
	current *flowshop.Solution
	best    *flowshop.Solution

	fitness     float64
	bestFitness float64

	age            float64
	grazingAbility float64
	stamina        float64
	leader         bool
	stagnation     int
}

// NewHorse создаёт лошадь с заданным решением; оно же становится личным рекордом.
func NewHorse(s *flowshop.Solution) *Horse {
	h := &Horse{grazingAbility: 0.8, stamina: 1.0}
	h.reset(s)
	return h
}

// reset заменяет и текущее решение, и личный рекорд.
func (h *Horse) reset(s *flowshop.Solution) {
	h.current = s
	h.fitness = fitness(s.Makespan())
	h.best = s.Clone()
	h.bestFitness = h.fitness
}

// refresh пересчитывает приспособленность текущего решения и сравнивает
// её с личным рекордом; счётчик застоя сбрасывается или растёт.
func (h *Horse) refresh() bool {
	h.fitness = fitness(h.current.Makespan())
	if h.fitness > h.bestFitness {
		h.best = h.current.Clone()
		h.bestFitness = h.fitness
		h.stagnation = 0
		return true
	}
	h.stagnation++
	return false
}

// SetSolution заменяет текущее решение.
func (h *Horse) SetSolution(s *flowshop.Solution) {
	h.current = s
	h.refresh()
}

func (h *Horse) Solution() *flowshop.Solution     { return h.current }
func (h *Horse) BestSolution() *flowshop.Solution { return h.best }
func (h *Horse) Fitness() float64                 { return h.fitness }
func (h *Horse) BestFitness() float64             { return h.bestFitness }
func (h *Horse) Makespan() int                    { return h.current.Makespan() }
func (h *Horse) BestMakespan() int                { return h.best.Makespan() }
func (h *Horse) Age() float64                     { return h.age }
func (h *Horse) GrazingAbility() float64          { return h.grazingAbility }
func (h *Horse) Stamina() float64                 { return h.stamina }
func (h *Horse) IsLeader() bool                   { return h.leader }
func (h *Horse) Stagnation() int                  { return h.stagnation }

// Clone возвращает независимую копию лошади.
func (h *Horse) Clone() *Horse {
	c := *h
	c.current = h.current.Clone()
	c.best = h.best.Clone()
	return &c
}

func checkRate(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) {
		return fmt.Errorf("%s должна быть в диапазоне [0,1] (получено %f)", name, v)
	}
	return nil
}

// Graze — локальный поиск. С вероятностью intensity*grazingAbility*stamina
// выполняется 2-opt, независимо с вероятностью 0.7 от неё поиск вставками.
func (h *Horse) Graze(intensity float64, r *rng.Source) (bool, error) {
	if intensity <= 0 || intensity > 1 || math.IsNaN(intensity) {
		return false, fmt.Errorf("интенсивность выпаса должна быть в диапазоне (0,1] (получено %f)", intensity)
	}
	effective := intensity * h.grazingAbility * h.stamina

	improved := false
	if r.Bool(effective) && h.current.TwoOptSearch() {
		improved = true
	}
	if r.Bool(effective*0.7) && h.current.InsertionSearch() {
		improved = true
	}
	if improved {
		h.refresh()
	}
	return improved, nil
}

// Roam возвращает решение, полученное серией случайных обменов и вставок
// от текущего. Сама лошадь не изменяется.
func (h *Horse) Roam(explorationRate float64, r *rng.Source) (*flowshop.Solution, error) {
	if err := checkRate("интенсивность исследования", explorationRate); err != nil {
		return nil, err
	}
	moves := int(math.Round(explorationRate * float64(h.current.Len()) * 0.5))
	if moves < 1 {
		moves = 1
	}
	s := h.current
	for i := 0; i < moves; i++ {
		if r.Coin() {
			s = s.SwapNeighbor(r)
		} else {
			s = s.InsertNeighbor(r)
		}
	}
	if s == h.current {
		s = s.Clone()
	}
	return s, nil
}

// FollowLeader скрещивает текущее решение с рекордом лидера:
// OX с вероятностью followingRate, иначе упрощённый PMX.
func (h *Horse) FollowLeader(leader *Horse, followingRate float64, r *rng.Source) (*flowshop.Solution, error) {
	if err := checkRate("вероятность следования за лидером", followingRate); err != nil {
		return nil, err
	}
	if leader == nil {
		return nil, ErrNotInitialized
	}
	op := MappedCrossover
	if r.Bool(followingRate) {
		op = OrderCrossover
	}
	return op.Apply(h.current, leader.best, r), nil
}

// MateWith возвращает потомка личных рекордов двух лошадей либо,
// без кроссовера, копию рекорда одной из них.
func (h *Horse) MateWith(mate *Horse, crossoverRate float64, r *rng.Source) (*flowshop.Solution, error) {
	if err := checkRate("вероятность кроссовера", crossoverRate); err != nil {
		return nil, err
	}
	if r.Bool(crossoverRate) {
		op := MappedCrossover
		if r.Coin() {
			op = OrderCrossover
		}
		return op.Apply(h.best, mate.best, r), nil
	}
	if r.Coin() {
		return h.best.Clone(), nil
	}
	return mate.best.Clone(), nil
}

// Mutate с вероятностью mutationRate заменяет текущее решение соседним.
func (h *Horse) Mutate(mutationRate float64, r *rng.Source) error {
	if err := checkRate("вероятность мутации", mutationRate); err != nil {
		return err
	}
	if !r.Bool(mutationRate) {
		return nil
	}
	if r.Coin() {
		h.current = h.current.SwapNeighbor(r)
	} else {
		h.current = h.current.InsertNeighbor(r)
	}
	h.refresh()
	return nil
}

func (h *Horse) IncreaseAge() {
	h.age++
	h.grazingAbility = math.Max(minAbility, h.grazingAbility*0.995)
	h.stamina = math.Max(minAbility, h.stamina*0.998)
}

// Rejuvenate сбрасывает возраст и застой, способности выбираются
// равномерно из [0.8, 1.0]. Решение не меняется.
func (h *Horse) Rejuvenate(r *rng.Source) {
	h.age = 0
	h.grazingAbility = 0.8 + r.Float64()*0.2
	h.stamina = 0.8 + r.Float64()*0.2
	h.stagnation = 0
}

func (h *Horse) IsStagnant(maxStagnation int) bool {
	return h.stagnation >= maxStagnation
}

func (h *Horse) String() string {
	leader := "нет"
	if h.leader {
		leader = "да"
	}
	return fmt.Sprintf("makespan=%d лучший=%d возраст=%.1f лидер=%s застой=%d",
		h.Makespan(), h.BestMakespan(), h.age, leader, h.stagnation)
}
