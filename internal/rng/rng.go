// Package rng содержит единый источник псевдослучайных чисел для эвристик.
//
// Source не потокобезопасен: каждый запуск алгоритма владеет своим экземпляром.
package rng

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrSampleSize возвращается, если размер выборки превышает размер совокупности.
var ErrSampleSize = errors.New("rng: sample size out of range")

// Source — обёртка над *rand.Rand с операциями, которые нужны алгоритмам.
type Source struct {
	r *rand.Rand
}

// New возвращает детерминированный источник для заданного сида.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed))}
}

// FromRand оборачивает уже созданный генератор.
func FromRand(r *rand.Rand) *Source {
	if r == nil {
		return nil
	}
	return &Source{r: r}
}

// Seed переинициализирует генератор.
func (s *Source) Seed(seed int64) {
	s.r.Seed(seed)
}

// Intn возвращает равномерное целое в [0, n). Паникует при n <= 0.
func (s *Source) Intn(n int) int {
	return s.r.Intn(n)
}

// IntRange возвращает равномерное целое в [min, max] (обе границы включены).
// Паникует при min > max.
func (s *Source) IntRange(min, max int) int {
	if min > max {
		panic(fmt.Sprintf("rng: min %d > max %d", min, max))
	}
	return min + s.r.Intn(max-min+1)
}

// Float64 возвращает равномерное вещественное в [0, 1).
func (s *Source) Float64() float64 {
	return s.r.Float64()
}

// Bool возвращает true с вероятностью p.
func (s *Source) Bool(p float64) bool {
	return s.r.Float64() < p
}

// Coin — честная монетка.
func (s *Source) Coin() bool {
	return s.Bool(0.5)
}

// Shuffle выполняет перестановку Фишера–Йетса на месте.
func (s *Source) Shuffle(p []int) {
	for i := len(p) - 1; i > 0; i-- {
		j := s.r.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}

// Perm возвращает случайную перестановку [0, n).
func (s *Source) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	s.Shuffle(p)
	return p
}

// Sample возвращает k различных индексов из [0, n).
func (s *Source) Sample(n, k int) ([]int, error) {
	if n < 0 || k < 0 || k > n {
		return nil, fmt.Errorf("%w: k=%d, n=%d", ErrSampleSize, k, n)
	}
	p := s.Perm(n)
	return p[:k], nil
}
