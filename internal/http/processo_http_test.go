package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cbbasket/processos/internal/auth"
	"github.com/cbbasket/processos/internal/config"
	httpmiddleware "github.com/cbbasket/processos/internal/http/middleware"
	"github.com/cbbasket/processos/internal/processo"
	"github.com/cbbasket/processos/internal/service"
)

type fakeProcessoRepo struct {
	processos   map[int64]*processo.Processo
	tramitacoes map[int64]*processo.Tramitacao
	pendente    bool
}

func newFakeProcessoRepo() *fakeProcessoRepo {
	return &fakeProcessoRepo{
		processos:   map[int64]*processo.Processo{},
		tramitacoes: map[int64]*processo.Tramitacao{},
	}
}

func (f *fakeProcessoRepo) Criar(ctx context.Context, input processo.CriarInput, criadoPor int64) (*processo.Processo, error) {
	proc := &processo.Processo{
		ID:              int64(len(f.processos) + 1),
		NumeroProtocolo: "2026.CBB.000001-1",
		Assunto:         input.Assunto,
		Status:          processo.StatusAberto,
		Prioridade:      input.Prioridade,
		CriadoPor:       criadoPor,
	}
	f.processos[proc.ID] = proc
	return proc, nil
}

func (f *fakeProcessoRepo) Get(ctx context.Context, id int64) (*processo.Processo, error) {
	proc, ok := f.processos[id]
	if !ok {
		return nil, processo.ErrNaoEncontrado
	}
	cp := *proc
	return &cp, nil
}

func (f *fakeProcessoRepo) Atualizar(ctx context.Context, id int64, input processo.AtualizarInput) (*processo.Processo, error) {
	proc, ok := f.processos[id]
	if !ok {
		return nil, processo.ErrNaoEncontrado
	}
	if input.Assunto != nil {
		proc.Assunto = *input.Assunto
	}
	if input.Prioridade != nil {
		proc.Prioridade = *input.Prioridade
	}
	if input.PrazoDias != nil {
		proc.PrazoDias = input.PrazoDias
	}
	cp := *proc
	return &cp, nil
}

func (f *fakeProcessoRepo) GetPorProtocolo(ctx context.Context, numero string) (*processo.Processo, error) {
	for _, proc := range f.processos {
		if proc.NumeroProtocolo == numero {
			cp := *proc
			return &cp, nil
		}
	}
	return nil, processo.ErrNaoEncontrado
}

func (f *fakeProcessoRepo) Listar(ctx context.Context, filtro processo.Filtro) ([]processo.Processo, error) {
	var out []processo.Processo
	for _, proc := range f.processos {
		out = append(out, *proc)
	}
	return out, nil
}

func (f *fakeProcessoRepo) AtualizarStatus(ctx context.Context, id int64, status string, concluir bool) (*processo.Processo, error) {
	proc, ok := f.processos[id]
	if !ok {
		return nil, processo.ErrNaoEncontrado
	}
	proc.Status = status
	cp := *proc
	return &cp, nil
}

func (f *fakeProcessoRepo) InserirTramitacao(ctx context.Context, input processo.TramitarInput, setorOrigemID, enviadoPor int64) (*processo.Tramitacao, error) {
	tram := &processo.Tramitacao{
		ID:              int64(len(f.tramitacoes) + 1),
		ProcessoID:      input.ProcessoID,
		SetorOrigemID:   setorOrigemID,
		SetorDestinoID:  input.SetorDestinoID,
		TipoTramitacao:  input.TipoTramitacao,
		EnviadoPor:      enviadoPor,
		StatusAprovacao: processo.AprovacaoPendente,
	}
	f.tramitacoes[tram.ID] = tram
	if proc, ok := f.processos[input.ProcessoID]; ok {
		proc.Status = processo.StatusEmTramite
	}
	return tram, nil
}

func (f *fakeProcessoRepo) ListarTramitacoes(ctx context.Context, processoID int64) ([]processo.Tramitacao, error) {
	var out []processo.Tramitacao
	for _, tram := range f.tramitacoes {
		if tram.ProcessoID == processoID {
			out = append(out, *tram)
		}
	}
	return out, nil
}

func (f *fakeProcessoRepo) GetTramitacao(ctx context.Context, id int64) (*processo.Tramitacao, error) {
	tram, ok := f.tramitacoes[id]
	if !ok {
		return nil, processo.ErrTramitacaoNaoEncontrada
	}
	cp := *tram
	return &cp, nil
}

func (f *fakeProcessoRepo) TemAprovacaoPendente(ctx context.Context, processoID int64) (bool, error) {
	return f.pendente, nil
}

func (f *fakeProcessoRepo) RegistrarDecisao(ctx context.Context, tramitacaoID int64, status string, decididoPor int64, observacao *string) (*processo.Tramitacao, error) {
	tram, ok := f.tramitacoes[tramitacaoID]
	if !ok {
		return nil, processo.ErrTramitacaoNaoEncontrada
	}
	if tram.StatusAprovacao != processo.AprovacaoPendente {
		return nil, processo.ErrTransicaoInvalida
	}
	tram.StatusAprovacao = status
	tram.ObservacaoDecisao = observacao
	cp := *tram
	return &cp, nil
}

func (f *fakeProcessoRepo) RegistrarRejeicao(ctx context.Context, tramitacaoID, decididoPor int64, motivo string) (*processo.Tramitacao, error) {
	tram, ok := f.tramitacoes[tramitacaoID]
	if !ok {
		return nil, processo.ErrTramitacaoNaoEncontrada
	}
	if tram.StatusAprovacao != processo.AprovacaoPendente {
		return nil, processo.ErrTransicaoInvalida
	}
	tram.StatusAprovacao = processo.AprovacaoRejeitado
	tram.MotivoRejeicao = &motivo
	cp := *tram
	return &cp, nil
}

func (f *fakeProcessoRepo) Stats(ctx context.Context, usuarioID int64, setorID *int64) (*processo.DashboardStats, error) {
	return &processo.DashboardStats{TotalProcessos: int64(len(f.processos))}, nil
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *ErrorBody      `json:"error"`
}

func newTestRouter(t *testing.T, repo *fakeProcessoRepo) (*chi.Mux, *auth.JWTManager) {
	t.Helper()

	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!!", time.Minute)
	authService := service.NewAuthService(nil, nil, jwtMgr, time.Hour)

	h := NewHandler(nil, nil, authService, processo.NewService(repo), nil, nil, nil)

	cfg := &config.Config{
		RateLimitPublic: config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
		RateLimitAuth:   config.RateLimitConfig{RequestsPerSecond: 100, Burst: 100},
	}
	return NewRouter(cfg, h), jwtMgr
}

func doRequest(t *testing.T, router http.Handler, jwtMgr *auth.JWTManager, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	if jwtMgr != nil {
		token, _, err := jwtMgr.GenerateAccessToken("5", 4, "analista")
		if err != nil {
			t.Fatalf("geração de token falhou: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("resposta não é JSON de envelope: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func TestRotasPrivadasExigemToken(t *testing.T) {
	router, _ := newTestRouter(t, newFakeProcessoRepo())

	rec, env := doRequest(t, router, nil, http.MethodGet, "/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("esperava 401, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "AUTH" {
		t.Fatalf("esperava erro AUTH, obteve %+v", env.Error)
	}
}

func TestCriarProcessoHTTP(t *testing.T) {
	repo := newFakeProcessoRepo()
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPost, "/processos",
		`{"tipo_processo_id":1,"assunto":"Convocação","setor_destino_id":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("esperava 201, obteve %d (%s)", rec.Code, rec.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("erro inesperado: %+v", env.Error)
	}

	rec, env = doRequest(t, router, jwtMgr, http.MethodPost, "/processos",
		`{"tipo_processo_id":1,"setor_destino_id":2}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("assunto vazio deveria dar 400, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION" {
		t.Fatalf("esperava erro VALIDATION, obteve %+v", env.Error)
	}
}

func TestBuscarProcessoInexistente(t *testing.T) {
	router, jwtMgr := newTestRouter(t, newFakeProcessoRepo())

	rec, env := doRequest(t, router, jwtMgr, http.MethodGet, "/processos/99", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("esperava 404, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("esperava erro NOT_FOUND, obteve %+v", env.Error)
	}
}

func TestConcluirProcessoBloqueado(t *testing.T) {
	repo := newFakeProcessoRepo()
	repo.processos[1] = &processo.Processo{ID: 1, Status: processo.StatusEmTramite}
	repo.pendente = true
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPost, "/processos/1/concluir", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("esperava 422, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "PROCESSO_BLOQUEADO" {
		t.Fatalf("esperava erro PROCESSO_BLOQUEADO, obteve %+v", env.Error)
	}
}

func TestArquivarProcessoAberto(t *testing.T) {
	repo := newFakeProcessoRepo()
	repo.processos[1] = &processo.Processo{ID: 1, Status: processo.StatusAberto}
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPost, "/processos/1/arquivar", "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("esperava 422, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "TRANSICAO_INVALIDA" {
		t.Fatalf("esperava erro TRANSICAO_INVALIDA, obteve %+v", env.Error)
	}
}

func TestAprovarTramitacaoDeOutroSetor(t *testing.T) {
	repo := newFakeProcessoRepo()
	// O usuário do token pertence ao setor 4; destino é o setor 9.
	repo.tramitacoes[10] = &processo.Tramitacao{
		ID: 10, ProcessoID: 1, SetorOrigemID: 4, SetorDestinoID: 9,
		TipoTramitacao: processo.TipoAprovacao, StatusAprovacao: processo.AprovacaoPendente,
	}
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPost, "/tramitacoes/10/aprovar", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("esperava 403, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "FORBIDDEN" {
		t.Fatalf("esperava erro FORBIDDEN, obteve %+v", env.Error)
	}
}

func TestTramitarProcessoHTTP(t *testing.T) {
	repo := newFakeProcessoRepo()
	repo.processos[1] = &processo.Processo{ID: 1, Status: processo.StatusAberto}
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPost, "/processos/1/tramitar",
		`{"setor_destino_id":9,"tipo_tramitacao":"aprovacao","observacao":"para análise"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("esperava 201, obteve %d (%s)", rec.Code, rec.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("erro inesperado: %+v", env.Error)
	}
	if repo.processos[1].Status != processo.StatusEmTramite {
		t.Fatalf("processo deveria estar em trâmite, obteve %q", repo.processos[1].Status)
	}
}

func TestAtualizarProcessoHTTP(t *testing.T) {
	repo := newFakeProcessoRepo()
	repo.processos[1] = &processo.Processo{ID: 1, Status: processo.StatusAberto, Assunto: "Convocação", Prioridade: processo.PrioridadeNormal}
	router, jwtMgr := newTestRouter(t, repo)

	rec, env := doRequest(t, router, jwtMgr, http.MethodPut, "/processos/1",
		`{"assunto":"Convocação de atletas","prioridade":"alta"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("esperava 200, obteve %d (%s)", rec.Code, rec.Body.String())
	}
	if env.Error != nil {
		t.Fatalf("erro inesperado: %+v", env.Error)
	}
	if repo.processos[1].Assunto != "Convocação de atletas" || repo.processos[1].Prioridade != processo.PrioridadeAlta {
		t.Fatalf("processo não foi atualizado: %+v", repo.processos[1])
	}

	rec, env = doRequest(t, router, jwtMgr, http.MethodPut, "/processos/1", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("corpo sem campos deveria dar 400, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION" {
		t.Fatalf("esperava erro VALIDATION, obteve %+v", env.Error)
	}

	rec, env = doRequest(t, router, jwtMgr, http.MethodPut, "/processos/99", `{"assunto":"x"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("esperava 404, obteve %d", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Fatalf("esperava erro NOT_FOUND, obteve %+v", env.Error)
	}
}

func TestErroInesperadoVira500SemDetalhe(t *testing.T) {
	interno := errors.New("pgx: connection refused (host=db-interno:5432)")

	for nome, write := range map[string]func(http.ResponseWriter, error){
		"processos":  writeProcessoError,
		"documentos": writeDocumentoError,
	} {
		t.Run(nome, func(t *testing.T) {
			rec := httptest.NewRecorder()
			write(rec, interno)

			if rec.Code != http.StatusInternalServerError {
				t.Fatalf("esperava 500, obteve %d", rec.Code)
			}

			var env envelope
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("resposta não é envelope: %v", err)
			}
			if env.Error == nil || env.Error.Code != "INTERNAL" {
				t.Fatalf("esperava erro INTERNAL, obteve %+v", env.Error)
			}
			if strings.Contains(env.Error.Message, "pgx") || strings.Contains(env.Error.Message, "db-interno") {
				t.Fatalf("mensagem não pode vazar detalhe interno: %q", env.Error.Message)
			}
		})
	}
}

func TestErroDeValidacaoVira400(t *testing.T) {
	rec := httptest.NewRecorder()
	writeProcessoError(rec, fmt.Errorf("%w: assunto obrigatório", processo.ErrValidacao))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("esperava 400, obteve %d", rec.Code)
	}

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("resposta não é envelope: %v", err)
	}
	if env.Error == nil || env.Error.Code != "VALIDATION" {
		t.Fatalf("esperava erro VALIDATION, obteve %+v", env.Error)
	}
	if !strings.Contains(env.Error.Message, "assunto obrigatório") {
		t.Fatalf("mensagem deveria orientar o usuário, obteve %q", env.Error.Message)
	}
}

func TestIdentidadeDeTesteNoContexto(t *testing.T) {
	ctx := httpmiddleware.WithIdentity(context.Background(), 5, 4)
	if got := httpmiddleware.GetUsuarioID(ctx); got != 5 {
		t.Fatalf("esperava usuário 5, obteve %d", got)
	}
	setor := httpmiddleware.GetSetorID(ctx)
	if setor == nil || *setor != 4 {
		t.Fatal("esperava setor 4 no contexto")
	}
}
