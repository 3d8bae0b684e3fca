package main

import (
	"context"
	"flag"
	"os"

	"mail-routing-service/internal/config"
	"mail-routing-service/internal/database"
	"mail-routing-service/internal/domain"
	"mail-routing-service/internal/renderer"
	"mail-routing-service/internal/repository"
	"mail-routing-service/internal/usecase"

	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	// Логгер
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Конфиг
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.WithError(err).Error("Failed to load config")
		os.Exit(domain.ExitConfig)
	}
	if level, parseErr := logrus.ParseLevel(cfg.LogLevel); parseErr == nil {
		logger.SetLevel(level)
	}

	// Источник данных
	var source domain.DataSource
	if cfg.Source == config.SourceFixture {
		source, err = repository.NewFixtureSource(cfg.FixturePath)
		if err != nil {
			logger.WithError(err).Error("Failed to open fixture")
			os.Exit(domain.ExitConfig)
		}
	} else {
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			logger.WithError(err).Error("Database connection failed")
			os.Exit(domain.ExitTempFail)
		}
		defer db.Close()
		logger.Info("Database connected")
		source = repository.NewPostgresSource(db)
	}

	// Use Cases
	loaderUC := usecase.NewLoaderUseCase(source, logger)
	reportUC := usecase.NewReportUseCase()

	// Загрузка маршрутного графа
	registry := domain.NewRegistry(cfg.DefaultDomain)
	stats, err := loaderUC.Load(context.Background(), registry)
	if err != nil {
		logger.WithError(err).Error("Failed to load routing graph")
		os.Exit(domain.ToExitCode(err))
	}
	logger.WithFields(logrus.Fields{
		"source":    source.Name(),
		"users":     stats.Users,
		"groups":    stats.Groups,
		"addresses": stats.Addresses,
		"domains":   stats.Domains,
		"cycles":    stats.Cycles,
	}).Info("Routing graph loaded")

	// Разрешение доставки
	report, err := reportUC.BuildReport(registry)
	if err != nil {
		logger.WithError(err).Error("Failed to build routing table")
		os.Exit(domain.ToExitCode(err))
	}

	// Вывод: stdout или файл из конфига
	out := os.Stdout
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			logger.WithError(err).Error("Failed to create output file")
			os.Exit(domain.ExitCantCreat)
		}
		defer f.Close()
		out = f
	}
	if err := renderer.NewRenderer(out).Render(report); err != nil {
		logger.WithError(err).Error("Failed to render routing table")
		os.Exit(domain.ExitSoftware)
	}

	logger.WithField("run_id", report.RunID).Info("Routing table rendered")
}
