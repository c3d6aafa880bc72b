package app

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cafe-fausse/booking-service/booking/config"
	"github.com/cafe-fausse/booking-service/booking/internal/handler"
	"github.com/cafe-fausse/booking-service/booking/internal/repository"
	"github.com/cafe-fausse/booking-service/booking/internal/server"
	"github.com/cafe-fausse/booking-service/booking/internal/service"
	"github.com/cafe-fausse/booking-service/booking/migrations"
	"github.com/cafe-fausse/booking-service/pkg/logger"
	"github.com/cafe-fausse/booking-service/pkg/postgres"
	"go.uber.org/zap"
)

func Run(cfg *config.Config) error {
	log := logger.NewLogger(cfg.Log, "booking")
	db, err := postgres.NewPostgresDB(context.Background(), &cfg.Database, migrations.MigrationFiles)
	if err != nil {
		return fmt.Errorf("db init %v", err)
	}
	repo, err := repository.NewRepository(db, log)
	if err != nil {
		return fmt.Errorf("repo booking %v", err)
	}
	svc := service.NewService(repo, log)
	h := handler.New(svc, log)

	srv := server.NewServer(cfg.Server, h.NewRouter(cfg.CORS.AllowOrigins))
	log.Info("http server start ON: ",
		zap.String("addr",
			net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)))
	go func() {
		if err := srv.Run(); err != nil {
			log.Error("server run", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	termSig := <-sig

	log.Debug("Graceful shutdown", zap.Any("signal", termSig))

	closeCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err = srv.Stop(closeCtx); err != nil {
		log.Error("srv.Stop", zap.Error(err))
	}
	db.Close()
	log.Info("Graceful shutdown finished")
	return nil
}
