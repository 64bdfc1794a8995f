package hho

import "math"

// adaptParameters корректирует рабочие параметры по трём сигналам:
// ход поиска, разнообразие табуна и застой лучшего решения.
// progress — доля пройденных итераций запуска.
func adaptParameters(p *Config, progress, diversity float64, stagnation int) {
	// В начале больше исследования, в конце больше эксплуатации
	if progress < 0.3 {
		p.RoamingRate = math.Min(0.5, p.RoamingRate*1.1)
		p.ExplorationRate = math.Min(0.5, p.ExplorationRate*1.1)
	} else if progress > 0.7 {
		p.GrazingIntensity = math.Min(0.9, p.GrazingIntensity*1.05)
		p.FollowingRate = math.Min(0.9, p.FollowingRate*1.05)
	}

	if diversity < p.DiversityThreshold {
		p.MutationRate = math.Min(0.3, p.MutationRate*1.2)
		p.ReplacementRate = math.Min(0.2, p.ReplacementRate*1.1)
	} else if diversity > 0.1 {
		p.GrazingIntensity = math.Min(0.9, p.GrazingIntensity*1.1)
	}

	if stagnation > p.MaxStagnation/2 {
		p.MutationRate = math.Min(0.3, p.MutationRate*1.15)
	}
}
