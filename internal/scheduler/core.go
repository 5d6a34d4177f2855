package scheduler

import (
	"math/rand"
)

// GeneticAlgorithm 负责把一代种群演化为下一代。
// rng 不是并发安全的，所有算子都只能在同一个 goroutine 中调用
type GeneticAlgorithm struct {
	parameters *Parameters
	snapshot   *Snapshot
	rng        *rand.Rand
}

func NewGeneticAlgorithm(parameters *Parameters, snapshot *Snapshot, rng *rand.Rand) *GeneticAlgorithm {
	return &GeneticAlgorithm{
		parameters: parameters,
		snapshot:   snapshot,
		rng:        rng,
	}
}

// NewRandomSchedule 随机初始化一个课表
func (ga *GeneticAlgorithm) NewRandomSchedule() (*Schedule, error) {
	s := NewSchedule(ga.snapshot, ga.parameters.CountSelfConflicts)
	if err := s.Initialize(ga.rng); err != nil {
		return nil, err
	}
	return s, nil
}

func (ga *GeneticAlgorithm) Evolve(pop *Population) (*Population, error) {
	return ga.Mutate(ga.Crossover(pop))
}

// Crossover 要求 pop 已经按适应度从高到低排好序。
// 前 EliteCount 个课表原样保留，剩下的由锦标赛选出的两个父本交叉产生
func (ga *GeneticAlgorithm) Crossover(pop *Population) *Population {
	newPop := NewPopulation(ga.parameters.PopulationSize)

	// 保留精英
	for i := 0; i < ga.parameters.EliteCount && i < pop.Size(); i++ {
		newPop.Add(pop.Schedule(i))
	}

	for newPop.Size() < ga.parameters.PopulationSize {
		p1 := ga.TournamentSelect(pop)
		p2 := ga.TournamentSelect(pop)
		newPop.Add(ga.CrossoverSchedules(p1, p2))
	}

	return newPop
}

// CrossoverSchedules 均匀交叉：子代每个位置的课等概率地来自 p1 或 p2。
// 同一个快照生成的课表按相同的院系、班级、课程顺序排列，所以相同下标的课含义相同
func (ga *GeneticAlgorithm) CrossoverSchedules(p1 *Schedule, p2 *Schedule) *Schedule {
	child := NewSchedule(p1.snapshot, p1.countSelfConflicts)
	for i := 0; i < p1.Len(); i++ {
		if ga.rng.Float64() > 0.5 {
			child.appendClass(p1.classes[i])
		} else {
			child.appendClass(p2.classes[i])
		}
	}
	return child
}

// TournamentSelect 有放回地随机抽取 TournamentSize 个课表，返回其中适应度最高的
func (ga *GeneticAlgorithm) TournamentSelect(pop *Population) *Schedule {
	var best *Schedule
	for i := 0; i < ga.parameters.TournamentSize; i++ {
		candidate := pop.Schedule(ga.rng.Intn(pop.Size()))
		if best == nil || candidate.Fitness() > best.Fitness() {
			best = candidate
		}
	}
	return best
}

// Mutate 对精英以外的每个课表，用一个新随机生成的课表逐位置地以 MutationRate 的概率替换课程
func (ga *GeneticAlgorithm) Mutate(pop *Population) (*Population, error) {
	for i := ga.parameters.EliteCount; i < pop.Size(); i++ {
		fresh, err := ga.NewRandomSchedule()
		if err != nil {
			return nil, err
		}
		ga.mutateWith(pop.Schedule(i), fresh)
	}
	return pop, nil
}

func (ga *GeneticAlgorithm) mutateWith(s *Schedule, fresh *Schedule) {
	for i := 0; i < s.Len(); i++ {
		if ga.parameters.MutationRate > ga.rng.Float64() {
			s.SetClass(i, fresh.classes[i])
		}
	}
}
