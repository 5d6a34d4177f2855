package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/metrics"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/queue"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/repository"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/worker"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	pingCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	if err := dbpool.PingContext(pingCtx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 连接 RabbitMQ
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 RabbitMQ", "error", err)
		return
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法创建通道", "error", err)
		return
	}
	defer ch.Close()

	for _, name := range []string{cfg.RabbitMQ.MailQueue, cfg.RabbitMQ.JobQueue} {
		if _, err := queue.DeclareQueue(ch, name); err != nil {
			logger.Error("无法声明队列", "queue", name, "error", err)
			return
		}
	}

	// 一次只处理一个排课任务
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Error("无法设置预取数量", "error", err)
		return
	}

	msgs, err := ch.Consume(
		cfg.RabbitMQ.JobQueue, // 队列
		"",                    // 消费者标识，由 RabbitMQ 自动分配
		false,                 // 手动确认
		false,                 // 不独占队列
		false,                 // RabbitMQ 不支持这个参数
		false,                 // 等待 RabbitMQ 响应
		nil,                   // 额外参数
	)
	if err != nil {
		logger.Error("无法消费消息", "error", err)
		return
	}

	/**********************************************
	 * 启动指标服务器
	 **********************************************/
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:     fmt.Sprintf(":%s", cfg.Worker.MetricsPort),
		Handler:  mux,
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("无法启动指标服务器", "error", err)
		}
	}()

	/**********************************************
	 * 处理排课任务
	 **********************************************/
	processor := worker.NewProcessor(
		cfg,
		repo,
		queue.NewStatusStore(rdb, time.Duration(cfg.Redis.JobExpiration)*time.Second),
		queue.NewLock(rdb, time.Duration(cfg.Redis.LockExpiration)*time.Second),
		ch,
		collector,
	)

	// 收到信号后取消 ctx，正在进行的排课会在两代之间停下来
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logger.Error("消息通道已关闭")
					stop()
					return
				}

				job := &domain.GenerationJob{}
				if err := json.Unmarshal(msg.Body, job); err != nil {
					logger.Error("排课任务反序列化失败", "error", err)
					_ = msg.Nack(false, false)
					continue
				}

				logger.Info("收到排课任务", "jobID", job.ID)
				if err := processor.Process(ctx, job); err != nil {
					logger.Warn("排课任务将重新入队", "jobID", job.ID, "error", err)
					if errors.Is(err, queue.ErrLocked) {
						select {
						case <-ctx.Done():
						case <-time.After(time.Duration(cfg.Worker.RetryDelay) * time.Second):
						}
					}
					_ = msg.Nack(false, true)
					continue
				}

				_ = msg.Ack(false)
			}
		}
	}()

	logger.Info("等待排课任务...（按 CTRL+C 退出）")
	<-ctx.Done()

	logger.Info("正在关闭 worker...")
	wg.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("关闭指标服务器失败", "error", err)
	}
	logger.Info("worker 已成功关闭")
}
