package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cbbasket/processos/internal/auth"
	"github.com/cbbasket/processos/internal/config"
	"github.com/cbbasket/processos/internal/db"
	"github.com/cbbasket/processos/internal/documento"
	apihttp "github.com/cbbasket/processos/internal/http"
	"github.com/cbbasket/processos/internal/processo"
	"github.com/cbbasket/processos/internal/repo"
	"github.com/cbbasket/processos/internal/service"
	"github.com/cbbasket/processos/internal/setor"
	"github.com/cbbasket/processos/internal/storage"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuração inválida")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao conectar no Postgres")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("REDIS_URL inválida")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("falha ao conectar no Redis")
	}

	store, err := buildStorage(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao inicializar storage de documentos")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessTTL)

	usuarios := repo.New(pool)
	authService := service.NewAuthService(usuarios, redisClient, jwtManager, cfg.JWTRefreshTTL)
	processos := processo.NewService(processo.NewRepository(pool))
	documentos := documento.NewService(documento.NewRepository(pool), store)
	setores := setor.NewRepository(pool)

	handler := apihttp.NewHandler(pool, redisClient, authService, processos, documentos, setores, usuarios)
	router := apihttp.NewRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("API de processos iniciada")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("servidor HTTP encerrou com erro")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("encerrando servidor")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown forçado")
	}
}

func buildStorage(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Provider {
	case "s3":
		s3, err := storage.NewS3Storage(cfg)
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return storage.NewLocalStorage(cfg.LocalDir)
	}
}
