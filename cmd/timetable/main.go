package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/csvio"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/seed"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "timetable",
		Short:         "离线排课工具",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			// 结果可能输出到 stdout，日志统一写到 stderr
			logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出每一代的演化情况")

	cmd.AddCommand(newGenerateCommand())
	cmd.AddCommand(newSampleCommand())

	return cmd
}

func newGenerateCommand() *cobra.Command {
	var (
		dataDir string
		output  string
	)
	params := scheduler.DefaultParameters()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "读取 csv 目录中的数据并生成课表",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := scheduler.GenerateSchedule(cmd.Context(), params, csvio.NewLoader(dataDir))
			if err != nil {
				slog.Error("排课失败", "error", err)
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				if err := csvio.WriteTimetableFile(output, result.Classes); err != nil {
					slog.Error("无法写入课表", "file", output, "error", err)
					return err
				}
			} else if err := csvio.WriteTimetable(w, result.Classes); err != nil {
				return err
			}

			slog.Info("课表已生成",
				"classes", len(result.Classes),
				"fitness", result.Fitness,
				"conflicts", result.Conflicts,
				"generations", result.Generations,
				"seed", result.Seed,
			)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&dataDir, "data", "d", "./data", "存放 rooms.csv 等文件的目录")
	flags.StringVarP(&output, "output", "o", "", "课表输出文件，不指定时输出到 stdout")
	flags.IntVar(&params.PopulationSize, "population", params.PopulationSize, "种群大小")
	flags.IntVar(&params.EliteCount, "elite", params.EliteCount, "精英数量")
	flags.IntVar(&params.TournamentSize, "tournament", params.TournamentSize, "锦标赛选择的样本数量")
	flags.Float64Var(&params.MutationRate, "mutation-rate", params.MutationRate, "变异率")
	flags.IntVar(&params.MaxGenerations, "generations", params.MaxGenerations, "最大迭代次数")
	flags.Int64Var(&params.Seed, "seed", 0, "随机数种子，为 0 时使用当前时间")
	flags.IntVar(&params.Workers, "workers", 0, "并行计算适应度的 goroutine 数量")
	flags.BoolVar(&params.CountSelfConflicts, "count-self-conflicts", false, "每节课也和自己比较冲突")

	return cmd
}

func newSampleCommand() *cobra.Command {
	var outDir string
	opts := seed.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "生成一组随机的排课数据",
		RunE: func(cmd *cobra.Command, args []string) error {
			ds := seed.GenerateDataset(opts)
			if err := csvio.WriteDataset(outDir, ds); err != nil {
				return fmt.Errorf("无法写入数据: %w", err)
			}
			slog.Info("随机数据已生成", "dir", outDir, "sections", len(ds.Sections), "rooms", len(ds.Rooms))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&outDir, "output", "o", "./data", "输出目录")
	flags.IntVar(&opts.Instructors, "instructors", opts.Instructors, "教师数量")
	flags.IntVar(&opts.Courses, "courses", opts.Courses, "课程数量")
	flags.IntVar(&opts.MeetingWindows, "windows", opts.MeetingWindows, "每天的上课时间段数量")
	flags.IntVar(&opts.WindowDuration, "window-duration", opts.WindowDuration, "每个时间段的分钟数")
	flags.IntVar(&opts.Departments, "departments", opts.Departments, "院系数量")
	flags.IntVar(&opts.SectionsPerDepartment, "sections", opts.SectionsPerDepartment, "每个院系的班级数量")
	flags.IntVar(&opts.ExtraRooms, "extra-rooms", opts.ExtraRooms, "额外的随机教室数量")

	return cmd
}
