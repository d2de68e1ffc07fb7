package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/cbbasket/processos/internal/http/middleware"
	"github.com/cbbasket/processos/internal/processo"
)

// CriarProcesso autua um novo processo para o usuário autenticado.
func (h *Handler) CriarProcesso(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		TipoProcessoID int64  `json:"tipo_processo_id"`
		Assunto        string `json:"assunto"`
		Especificacao  string `json:"especificacao"`
		Interessado    string `json:"interessado"`
		Prioridade     string `json:"prioridade"`
		SetorDestinoID int64  `json:"setor_destino_id"`
		PrazoDias      *int   `json:"prazo_dias"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	usuarioID := httpmiddleware.GetUsuarioID(r.Context())

	proc, err := h.processos.Criar(r.Context(), processo.CriarInput{
		TipoProcessoID: payload.TipoProcessoID,
		Assunto:        payload.Assunto,
		Especificacao:  payload.Especificacao,
		Interessado:    payload.Interessado,
		Prioridade:     payload.Prioridade,
		SetorDestinoID: payload.SetorDestinoID,
		PrazoDias:      payload.PrazoDias,
	}, usuarioID)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, proc)
}

// AtualizarProcesso altera campos editáveis; campos ausentes não mudam.
func (h *Handler) AtualizarProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		TipoProcessoID *int64  `json:"tipo_processo_id"`
		Assunto        *string `json:"assunto"`
		Especificacao  *string `json:"especificacao"`
		Interessado    *string `json:"interessado"`
		Prioridade     *string `json:"prioridade"`
		PrazoDias      *int    `json:"prazo_dias"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	proc, err := h.processos.Atualizar(r.Context(), id, processo.AtualizarInput{
		TipoProcessoID: payload.TipoProcessoID,
		Assunto:        payload.Assunto,
		Especificacao:  payload.Especificacao,
		Interessado:    payload.Interessado,
		Prioridade:     payload.Prioridade,
		PrazoDias:      payload.PrazoDias,
	})
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, proc)
}

// ListarProcessos lista processos aplicando filtros de query string.
func (h *Handler) ListarProcessos(w http.ResponseWriter, r *http.Request) {
	filtro, err := filtroFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	processos, err := h.processos.Listar(r.Context(), filtro)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"processos": processos})
}

// MeusProcessos lista os processos autuados pelo usuário autenticado.
func (h *Handler) MeusProcessos(w http.ResponseWriter, r *http.Request) {
	filtro, err := filtroFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}

	usuarioID := httpmiddleware.GetUsuarioID(r.Context())
	filtro.CriadoPor = &usuarioID

	processos, err := h.processos.Listar(r.Context(), filtro)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"processos": processos})
}

// ProcessosDoSetor lista os processos atualmente no setor informado.
func (h *Handler) ProcessosDoSetor(w http.ResponseWriter, r *http.Request) {
	setorID, ok := idFromURL(w, r, "setorID")
	if !ok {
		return
	}

	filtro, err := filtroFromQuery(r)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	filtro.SetorAtualID = &setorID

	processos, err := h.processos.Listar(r.Context(), filtro)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"processos": processos})
}

// BuscarProcesso devolve um processo por id.
func (h *Handler) BuscarProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	proc, err := h.processos.Buscar(r.Context(), id)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, proc)
}

// BuscarPorProtocolo devolve um processo pelo número de protocolo.
func (h *Handler) BuscarPorProtocolo(w http.ResponseWriter, r *http.Request) {
	numero := chi.URLParam(r, "numero")

	proc, err := h.processos.BuscarPorProtocolo(r.Context(), numero)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, proc)
}

// TramitarProcesso envia o processo do setor do usuário para outro setor.
func (h *Handler) TramitarProcesso(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		SetorDestinoID int64  `json:"setor_destino_id"`
		Observacao     string `json:"observacao"`
		TipoTramitacao string `json:"tipo_tramitacao"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	ctx := r.Context()
	tram, err := h.processos.Tramitar(ctx, processo.TramitarInput{
		ProcessoID:     id,
		SetorDestinoID: payload.SetorDestinoID,
		Observacao:     payload.Observacao,
		TipoTramitacao: payload.TipoTramitacao,
	}, httpmiddleware.GetUsuarioID(ctx), httpmiddleware.GetSetorID(ctx))
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, tram)
}

// ListarTramitacoes devolve o histórico de envios do processo.
func (h *Handler) ListarTramitacoes(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	tramitacoes, err := h.processos.ListarTramitacoes(r.Context(), id)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tramitacoes": tramitacoes})
}

// ConcluirProcesso encerra um processo em trâmite.
func (h *Handler) ConcluirProcesso(w http.ResponseWriter, r *http.Request) {
	h.mudarStatus(w, r, h.processos.Concluir)
}

// ArquivarProcesso arquiva um processo concluído.
func (h *Handler) ArquivarProcesso(w http.ResponseWriter, r *http.Request) {
	h.mudarStatus(w, r, h.processos.Arquivar)
}

// ReabrirProcesso devolve um processo encerrado ao estado aberto.
func (h *Handler) ReabrirProcesso(w http.ResponseWriter, r *http.Request) {
	h.mudarStatus(w, r, h.processos.Reabrir)
}

func (h *Handler) mudarStatus(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, int64) (*processo.Processo, error)) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	proc, err := fn(r.Context(), id, httpmiddleware.GetUsuarioID(r.Context()))
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, proc)
}

// AprovarTramitacao registra aprovação do setor de destino.
func (h *Handler) AprovarTramitacao(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Observacao string `json:"observacao"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	ctx := r.Context()
	tram, err := h.processos.Aprovar(ctx, id, httpmiddleware.GetUsuarioID(ctx), httpmiddleware.GetSetorID(ctx), payload.Observacao)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tram)
}

// RejeitarTramitacao registra rejeição e devolve o processo à origem.
func (h *Handler) RejeitarTramitacao(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Motivo string `json:"motivo"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	ctx := r.Context()
	tram, err := h.processos.Rejeitar(ctx, id, httpmiddleware.GetUsuarioID(ctx), httpmiddleware.GetSetorID(ctx), payload.Motivo)
	if err != nil {
		writeProcessoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, tram)
}

// DashboardStats agrega os contadores da tela inicial.
func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.processos.Stats(ctx, httpmiddleware.GetUsuarioID(ctx), httpmiddleware.GetSetorID(ctx))
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível agregar estatísticas", nil)
		return
	}

	WriteJSON(w, http.StatusOK, stats)
}

func filtroFromQuery(r *http.Request) (processo.Filtro, error) {
	q := r.URL.Query()

	filtro := processo.Filtro{
		NumeroProtocolo: q.Get("numero_protocolo"),
		Assunto:         q.Get("assunto"),
		Interessado:     q.Get("interessado"),
		Status:          q.Get("status"),
	}

	if raw := q.Get("tipo_processo_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return processo.Filtro{}, errors.New("tipo_processo_id inválido")
		}
		filtro.TipoProcessoID = &id
	}

	if raw := q.Get("setor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return processo.Filtro{}, errors.New("setor_id inválido")
		}
		filtro.SetorAtualID = &id
	}

	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return processo.Filtro{}, errors.New("limit inválido")
		}
		filtro.Limit = limit
	}

	if raw := q.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return processo.Filtro{}, errors.New("offset inválido")
		}
		filtro.Offset = offset
	}

	return filtro, nil
}

func idFromURL(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id inválido", nil)
		return 0, false
	}
	return id, true
}

// writeProcessoError mapeia erros de domínio para a taxonomia HTTP.
func writeProcessoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, processo.ErrNaoEncontrado):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "processo não encontrado", nil)
	case errors.Is(err, processo.ErrTramitacaoNaoEncontrada):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "tramitação não encontrada", nil)
	case errors.Is(err, processo.ErrTransicaoInvalida):
		WriteError(w, http.StatusUnprocessableEntity, "TRANSICAO_INVALIDA", err.Error(), nil)
	case errors.Is(err, processo.ErrBloqueado):
		WriteError(w, http.StatusUnprocessableEntity, "PROCESSO_BLOQUEADO", err.Error(), nil)
	case errors.Is(err, processo.ErrSemPermissao):
		WriteError(w, http.StatusForbidden, "FORBIDDEN", err.Error(), nil)
	case errors.Is(err, processo.ErrValidacao):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		// Falha não mapeada é interna; o detalhe fica no log, não na resposta.
		log.Error().Err(err).Msg("erro interno no fluxo de processos")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível processar a solicitação", nil)
	}
}
