package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cbbasket/processos/internal/documento"
	httpmiddleware "github.com/cbbasket/processos/internal/http/middleware"
)

// maxUploadBytes limita o tamanho do corpo de upload (20 MiB).
const maxUploadBytes = 20 << 20

// UploadDocumento recebe um arquivo multipart e o anexa ao processo.
func (h *Handler) UploadDocumento(w http.ResponseWriter, r *http.Request) {
	processoID, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "formulário multipart inválido ou arquivo grande demais", nil)
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "campo arquivo obrigatório", nil)
		return
	}
	defer file.Close()

	conteudo, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "falha ao ler arquivo enviado", nil)
		return
	}

	doc, err := h.documentos.Upload(r.Context(), documento.UploadInput{
		ProcessoID:    processoID,
		Nome:          r.FormValue("nome"),
		TipoDocumento: r.FormValue("tipo_documento"),
		Descricao:     r.FormValue("descricao"),
		ArquivoNome:   header.Filename,
		ContentType:   header.Header.Get("Content-Type"),
		Conteudo:      conteudo,
	}, httpmiddleware.GetUsuarioID(r.Context()))
	if err != nil {
		writeDocumentoError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, doc)
}

// ListarDocumentos devolve os documentos anexados ao processo.
func (h *Handler) ListarDocumentos(w http.ResponseWriter, r *http.Request) {
	processoID, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	documentos, err := h.documentos.ListarPorProcesso(r.Context(), processoID)
	if err != nil {
		writeDocumentoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"documentos": documentos})
}

// BuscarDocumento devolve os metadados de um documento.
func (h *Handler) BuscarDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	doc, err := h.documentos.Buscar(r.Context(), id)
	if err != nil {
		writeDocumentoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// AtualizarDocumento altera metadados; campos ausentes não mudam.
func (h *Handler) AtualizarDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	var payload struct {
		Nome          *string `json:"nome"`
		TipoDocumento *string `json:"tipo_documento"`
		Descricao     *string `json:"descricao"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "JSON inválido", nil)
		return
	}

	doc, err := h.documentos.Atualizar(r.Context(), id, documento.AtualizarInput{
		Nome:          payload.Nome,
		TipoDocumento: payload.TipoDocumento,
		Descricao:     payload.Descricao,
	})
	if err != nil {
		writeDocumentoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, doc)
}

// ExcluirDocumento remove o documento e o arquivo associado.
func (h *Handler) ExcluirDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	if err := h.documentos.Excluir(r.Context(), id); err != nil {
		writeDocumentoError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DownloadDocumento envia o conteúdo binário do arquivo ao cliente.
func (h *Handler) DownloadDocumento(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	doc, data, err := h.documentos.Download(r.Context(), id)
	if err != nil {
		writeDocumentoError(w, err)
		return
	}

	w.Header().Set("Content-Type", doc.ArquivoTipo)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ArquivoNome))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(data)))
	_, _ = w.Write(data)
}

func writeDocumentoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, documento.ErrNaoEncontrado):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "documento não encontrado", nil)
	case errors.Is(err, documento.ErrProcessoNaoEncontrado):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "processo não encontrado", nil)
	case errors.Is(err, documento.ErrArquivoNaoEncontrado):
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "arquivo do documento não encontrado", nil)
	case errors.Is(err, documento.ErrValidacao):
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		// Falha não mapeada é interna; o detalhe fica no log, não na resposta.
		log.Error().Err(err).Msg("erro interno no fluxo de documentos")
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível processar a solicitação", nil)
	}
}
