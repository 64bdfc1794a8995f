package hho

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config — параметры алгоритма табуна лошадей.
// Теги json используются при чтении YAML, теги env — для переопределения
// через переменные окружения с префиксом HHO_.
type Config struct {
	PopulationSize int `json:"populationSize" env:"POPULATION_SIZE" validate:"gte=1"`
	MaxIterations  int `json:"maxIterations" env:"MAX_ITERATIONS" validate:"gte=1"`

	GrazingIntensity float64 `json:"grazingIntensity" env:"GRAZING_INTENSITY" validate:"gt=0,lte=1"`
	RoamingRate      float64 `json:"roamingRate" env:"ROAMING_RATE" validate:"gte=0,lte=1"`
	ExplorationRate  float64 `json:"explorationRate" env:"EXPLORATION_RATE" validate:"gte=0,lte=1"`
	FollowingRate    float64 `json:"followingRate" env:"FOLLOWING_RATE" validate:"gte=0,lte=1"`
	MatingRate       float64 `json:"matingRate" env:"MATING_RATE" validate:"gte=0,lte=1"`
	CrossoverRate    float64 `json:"crossoverRate" env:"CROSSOVER_RATE" validate:"gte=0,lte=1"`
	MutationRate     float64 `json:"mutationRate" env:"MUTATION_RATE" validate:"gte=0,lte=1"`
	ReplacementRate  float64 `json:"replacementRate" env:"REPLACEMENT_RATE" validate:"gte=0,lte=1"`

	// MaxStagnation — число циклов без улучшения личного рекорда,
	// после которого лошадь считается застоявшейся.
	MaxStagnation        int `json:"maxStagnation" env:"MAX_STAGNATION" validate:"gte=1"`
	EliteImprovementFreq int `json:"eliteImprovementFreq" env:"ELITE_IMPROVEMENT_FREQ" validate:"gte=1"`
	EliteCount           int `json:"eliteCount" env:"ELITE_COUNT" validate:"gte=0"`

	DiversityThreshold  float64 `json:"diversityThreshold" env:"DIVERSITY_THRESHOLD" validate:"gte=0,lte=1"`
	AdaptiveParameters  bool    `json:"adaptiveParameters" env:"ADAPTIVE_PARAMETERS"`
	TerminationPatience int     `json:"terminationPatience" env:"TERMINATION_PATIENCE" validate:"gte=1"`

	// RandomInitRatio — доля случайных лошадей при инициализации,
	// остальные строятся жадной эвристикой.
	RandomInitRatio float64 `json:"randomInitRatio" env:"RANDOM_INIT_RATIO" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// описания полей для сообщений об ошибках
var fieldNames = map[string]string{
	"PopulationSize":       "размер табуна",
	"MaxIterations":        "максимальное число итераций",
	"GrazingIntensity":     "интенсивность выпаса",
	"RoamingRate":          "вероятность блуждания",
	"ExplorationRate":      "интенсивность исследования",
	"FollowingRate":        "вероятность следования за лидером",
	"MatingRate":           "доля спариваний",
	"CrossoverRate":        "вероятность кроссовера",
	"MutationRate":         "вероятность мутации",
	"ReplacementRate":      "доля замены слабых лошадей",
	"MaxStagnation":        "порог застоя",
	"EliteImprovementFreq": "частота улучшения элиты",
	"EliteCount":           "число элитных лошадей",
	"DiversityThreshold":   "порог разнообразия",
	"TerminationPatience":  "терпение остановки",
	"RandomInitRatio":      "доля случайной инициализации",
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return ">= " + fe.Param()
	case "gt":
		return "> " + fe.Param()
	case "lte":
		return "<= " + fe.Param()
	}
	return fe.Tag() + "=" + fe.Param()
}

func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	// Возвращаем только первую ошибку, как и загрузчик конфигурации.
	fe := verrs[0]
	name, ok := fieldNames[fe.Field()]
	if !ok {
		name = fe.Field()
	}
	return fmt.Errorf(
		"параметр «%s» должен быть %s (получено %v)",
		name, describeRule(fe), fe.Value(),
	)
}

func DefaultConfig() Config {
	return Config{
		PopulationSize:       30,
		MaxIterations:        1000,
		GrazingIntensity:     0.5,
		RoamingRate:          0.3,
		ExplorationRate:      0.3,
		FollowingRate:        0.7,
		MatingRate:           0.4,
		CrossoverRate:        0.8,
		MutationRate:         0.1,
		ReplacementRate:      0.1,
		MaxStagnation:        20,
		EliteImprovementFreq: 10,
		EliteCount:           3,
		DiversityThreshold:   0.01,
		AdaptiveParameters:   true,
		TerminationPatience:  100,
		RandomInitRatio:      0.8,
	}
}

// String выводит параметры в том же порядке, что и DefaultConfig.
func (c Config) String() string {
	yesNo := "нет"
	if c.AdaptiveParameters {
		yesNo = "да"
	}
	return fmt.Sprintf(
		"Параметры HHO:\n"+
			"  Размер табуна: %d\n"+
			"  Максимум итераций: %d\n"+
			"  Интенсивность выпаса: %.3f\n"+
			"  Вероятность блуждания: %.3f\n"+
			"  Интенсивность исследования: %.3f\n"+
			"  Следование за лидером: %.3f\n"+
			"  Доля спариваний: %.3f\n"+
			"  Вероятность кроссовера: %.3f\n"+
			"  Вероятность мутации: %.3f\n"+
			"  Доля замены: %.3f\n"+
			"  Порог застоя: %d\n"+
			"  Частота улучшения элиты: %d\n"+
			"  Число элитных лошадей: %d\n"+
			"  Порог разнообразия: %.4f\n"+
			"  Адаптивные параметры: %s\n"+
			"  Терпение остановки: %d\n"+
			"  Доля случайной инициализации: %.2f",
		c.PopulationSize, c.MaxIterations,
		c.GrazingIntensity, c.RoamingRate, c.ExplorationRate, c.FollowingRate,
		c.MatingRate, c.CrossoverRate, c.MutationRate, c.ReplacementRate,
		c.MaxStagnation, c.EliteImprovementFreq, c.EliteCount,
		c.DiversityThreshold, yesNo, c.TerminationPatience, c.RandomInitRatio,
	)
}
