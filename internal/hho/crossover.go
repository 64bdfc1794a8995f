package hho

import (
	"fmt"

	"flowShop/internal/flowshop"
	"flowShop/internal/rng"
)

// Crossover — закрытый набор операторов рекомбинации перестановок.
type Crossover uint8

const (
	OrderCrossover Crossover = iota
	MappedCrossover
)

func (c Crossover) String() string {
	switch c {
	case OrderCrossover:
		return "OX"
	case MappedCrossover:
		return "mapped"
	}
	return fmt.Sprintf("Crossover(%d)", uint8(c))
}

// Apply строит потомка родителей a и b. Родители не изменяются.
func (c Crossover) Apply(a, b *flowshop.Solution, r *rng.Source) *flowshop.Solution {
	switch c {
	case MappedCrossover:
		return mappedCrossover(a, b, r)
	default:
		return orderCrossover(a, b, r)
	}
}

func orderCrossover(a, b *flowshop.Solution, r *rng.Source) *flowshop.Solution {
	n := a.Len()
	p1 := r.IntRange(0, n-1)
	p2 := r.IntRange(0, n-1)
	if p1 > p2 {
		p1, p2 = p2, p1
	}
	return fromOrder(a, orderCrossoverAt(a.Order(), b.Order(), p1, p2))
}

// orderCrossoverAt — оператор OX с фиксированными точками разреза p1 <= p2.
// Отрезок [p1, p2] берётся из pa, остальные позиции слева направо
// заполняются работами pb в порядке их следования в pb.
func orderCrossoverAt(pa, pb []int, p1, p2 int) []int {
	n := len(pa)
	child := make([]int, n)
	used := make([]bool, n)
	for i := range child {
		child[i] = -1
	}

	// Копирование отрезка из первого родителя
	for i := p1; i <= p2; i++ {
		job := pa[i]
		if job >= 0 && job < n {
			child[i] = job
			used[job] = true
		}
	}

	// Заполнение свободных позиций генами второго родителя
	pos := 0
	for pos < n && child[pos] != -1 {
		pos++
	}
	for _, job := range pb {
		if pos >= n {
			break
		}
		if job < 0 || job >= n || used[job] {
			continue
		}
		child[pos] = job
		used[job] = true
		pos++
		for pos < n && child[pos] != -1 {
			pos++
		}
	}

	// Оставшиеся работы (возможны только при некорректных родителях)
	for job := 0; job < n; job++ {
		if used[job] {
			continue
		}
		for i := range child {
			if child[i] == -1 {
				child[i] = job
				used[job] = true
				break
			}
		}
	}
	return child
}

// mappedCrossover — упрощённый вариант PMX: от 1 до 3 обменов в копии a,
// каждый переносит работу, стоящую в b на случайной позиции,
// на другую случайную позицию потомка.
func mappedCrossover(a, b *flowshop.Solution, r *rng.Source) *flowshop.Solution {
	pa, pb := a.Order(), b.Order()
	n := len(pa)
	maxSwaps := min(3, n/2)
	if maxSwaps < 1 {
		maxSwaps = 1
	}
	swaps := r.IntRange(1, maxSwaps)
	for s := 0; s < swaps; s++ {
		pos1 := r.IntRange(0, n-1)
		pos2 := r.IntRange(0, n-1)
		job := pb[pos1]
		for j, v := range pa {
			if v == job {
				pa[j], pa[pos2] = pa[pos2], pa[j]
				break
			}
		}
	}
	return fromOrder(a, pa)
}

func fromOrder(like *flowshop.Solution, order []int) *flowshop.Solution {
	child := like.Clone()
	// order построен из работ того же экземпляра, ошибка невозможна
	if err := child.SetJobSequence(order); err != nil {
		panic(err)
	}
	return child
}
