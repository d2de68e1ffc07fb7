package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cbbasket/processos/internal/config"
	"github.com/cbbasket/processos/internal/documento"
	httpmiddleware "github.com/cbbasket/processos/internal/http/middleware"
	"github.com/cbbasket/processos/internal/processo"
	"github.com/cbbasket/processos/internal/repo"
	"github.com/cbbasket/processos/internal/service"
	"github.com/cbbasket/processos/internal/setor"
)

// Handler concentra as dependências dos endpoints HTTP.
type Handler struct {
	pool        *pgxpool.Pool
	redisClient *redis.Client
	authService *service.AuthService
	processos   *processo.Service
	documentos  *documento.Service
	setores     *setor.Repository
	usuarios    *repo.Queries
}

// NewHandler cria o conjunto de handlers com suas dependências.
func NewHandler(
	pool *pgxpool.Pool,
	redisClient *redis.Client,
	authService *service.AuthService,
	processos *processo.Service,
	documentos *documento.Service,
	setores *setor.Repository,
	usuarios *repo.Queries,
) *Handler {
	return &Handler{
		pool:        pool,
		redisClient: redisClient,
		authService: authService,
		processos:   processos,
		documentos:  documentos,
		setores:     setores,
		usuarios:    usuarios,
	}
}

// NewRouter monta as rotas públicas e privadas da API.
func NewRouter(cfg *config.Config, h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	// Rotas públicas: saúde e autenticação, limitadas por IP.
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.IPRateLimit(publicLimiter))

		r.Get("/health", h.Health)
		r.Get("/ready", h.Ready)

		r.Post("/auth/login", h.Login)
		r.Post("/auth/refresh", h.Refresh)
		r.Post("/auth/logout", h.Logout)
	})

	// Rotas privadas: exigem JWT válido, limitadas por usuário.
	r.Group(func(r chi.Router) {
		r.Use(httpmiddleware.Auth(h.authService.JWT()))
		r.Use(httpmiddleware.UserRateLimit(authLimiter))

		r.Get("/me", h.Me)

		r.Route("/processos", func(r chi.Router) {
			r.Post("/", h.CriarProcesso)
			r.Get("/", h.ListarProcessos)
			r.Get("/meus", h.MeusProcessos)
			r.Get("/setor/{setorID}", h.ProcessosDoSetor)
			r.Get("/protocolo/{numero}", h.BuscarPorProtocolo)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.BuscarProcesso)
				r.Put("/", h.AtualizarProcesso)
				r.Post("/tramitar", h.TramitarProcesso)
				r.Get("/tramitacoes", h.ListarTramitacoes)
				r.Post("/concluir", h.ConcluirProcesso)
				r.Post("/arquivar", h.ArquivarProcesso)
				r.Post("/reabrir", h.ReabrirProcesso)

				r.Post("/documentos", h.UploadDocumento)
				r.Get("/documentos", h.ListarDocumentos)
			})
		})

		r.Route("/tramitacoes/{id}", func(r chi.Router) {
			r.Post("/aprovar", h.AprovarTramitacao)
			r.Post("/rejeitar", h.RejeitarTramitacao)
		})

		r.Route("/documentos/{id}", func(r chi.Router) {
			r.Get("/", h.BuscarDocumento)
			r.Put("/", h.AtualizarDocumento)
			r.Delete("/", h.ExcluirDocumento)
			r.Get("/download", h.DownloadDocumento)
		})

		r.Get("/setores", h.ListarSetores)
		r.Get("/setores/{id}", h.BuscarSetor)
		r.Get("/tipos-processo", h.ListarTiposProcesso)
		r.Get("/usuarios/{id}", h.BuscarUsuario)

		r.Get("/dashboard/stats", h.DashboardStats)
	})

	return r
}

// Health responde enquanto o processo estiver de pé.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready verifica as dependências externas (Postgres e Redis).
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco de dados indisponível", nil)
		return
	}

	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "redis indisponível", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
