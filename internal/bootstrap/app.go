package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"carely/internal/ai"
	"carely/internal/config"
	"carely/internal/model"
	mysqlClient "carely/internal/platform/mysql"
	rabbitmqClient "carely/internal/platform/rabbitmq"
	redisClient "carely/internal/platform/redis"
	"carely/internal/rag"
	"carely/internal/repository"
	"carely/internal/worker"
)

type App struct {
	Config            *config.Config
	MySQL             *gorm.DB
	Redis             *redis.Client
	MQConn            *amqp.Connection
	LiveMessageWorker *worker.LiveMessageWorker

	AIClient   *ai.Client
	IndexStore *rag.IndexStore

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.Company{},
		&model.Document{},
		&model.Chunk{},
		&model.Category{},
		&model.LiveMessage{},
		&model.WhatsAppConfig{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	liveMessageRepo := repository.NewLiveMessageRepository(mysqlDB)
	liveMessageWorker := worker.NewLiveMessageWorker(mqConn, liveMessageRepo, cfg.RabbitMQ.LiveMessageQueue)
	if err := liveMessageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start live message worker failed: %w", err)
	}

	for _, dir := range []string{cfg.RAG.IndexDir, cfg.RAG.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir %s failed: %w", dir, err)
		}
	}

	return &App{
		Config:            cfg,
		MySQL:             mysqlDB,
		Redis:             redisCli,
		MQConn:            mqConn,
		LiveMessageWorker: liveMessageWorker,
		AIClient:          ai.NewClient(),
		IndexStore:        rag.NewIndexStore(cfg.RAG.IndexDir),
		StartedAt:         time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.LiveMessageWorker != nil {
		a.LiveMessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
