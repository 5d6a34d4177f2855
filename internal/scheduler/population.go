package scheduler

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Population 是一代中所有候选课表的集合
type Population struct {
	schedules []*Schedule
	size      int
}

func NewPopulation(capacity int) *Population {
	return &Population{
		schedules: make([]*Schedule, 0, capacity),
	}
}

func (p *Population) Add(s *Schedule) {
	p.schedules = append(p.schedules, s)
	p.size++
}

func (p *Population) Size() int {
	return p.size
}

// Schedules 返回底层的切片，排序和按下标访问都直接作用在种群上
func (p *Population) Schedules() []*Schedule {
	return p.schedules
}

func (p *Population) Schedule(i int) *Schedule {
	return p.schedules[i]
}

// SortByFitness 按适应度从高到低排序，适应度相同时保持原有顺序
func (p *Population) SortByFitness() {
	sort.SliceStable(p.schedules, func(i, j int) bool {
		return p.schedules[i].Fitness() > p.schedules[j].Fitness()
	})
}

func (p *Population) Best() *Schedule {
	if p.size == 0 {
		return nil
	}
	return p.schedules[0]
}

// Evaluate 并行计算所有课表的适应度，返回时所有适应度都已经缓存好了。
// 同一个 Schedule 只会被一个 goroutine 计算
func (p *Population) Evaluate(ctx context.Context, workers int) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	seen := make(map[*Schedule]struct{}, p.size)
	for _, s := range p.schedules {
		if _, exists := seen[s]; exists {
			continue
		}
		seen[s] = struct{}{}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.Fitness()
			return nil
		})
	}

	return g.Wait()
}
