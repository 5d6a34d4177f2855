package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

const namespace = "timetable"

// Collector 把排课过程中的数据暴露为 prometheus 指标
type Collector struct {
	generations prometheus.Counter
	bestFitness prometheus.Gauge
	conflicts   prometheus.Gauge
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
}

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "已完成演化的代数",
		}),
		bestFitness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_fitness",
			Help:      "最近一代中最佳课表的适应度",
		}),
		conflicts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_conflicts",
			Help:      "最近一代中最佳课表的冲突数",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "排课次数，按结束状态区分",
		}, []string{"state"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "一次排课的耗时",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
	}

	reg.MustRegister(c.generations, c.bestFitness, c.conflicts, c.runs, c.duration)

	return c
}

func (c *Collector) ObserveGeneration(report scheduler.GenerationReport) {
	// 第 0 代是初始种群，不算演化
	if report.Generation > 0 {
		c.generations.Inc()
	}
	c.bestFitness.Set(report.BestFitness)
	c.conflicts.Set(float64(report.BestConflicts))
}

func (c *Collector) ObserveRun(state scheduler.State, generations int, duration time.Duration) {
	c.runs.WithLabelValues(state.String()).Inc()
	c.duration.Observe(duration.Seconds())
}
