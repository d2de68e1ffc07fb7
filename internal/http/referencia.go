package http

import (
	"errors"
	"net/http"

	"github.com/cbbasket/processos/internal/repo"
	"github.com/cbbasket/processos/internal/setor"
)

// ListarSetores devolve os setores ativos para seleção de destino.
func (h *Handler) ListarSetores(w http.ResponseWriter, r *http.Request) {
	setores, err := h.setores.ListSetores(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar setores", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"setores": setores})
}

// BuscarSetor devolve um setor por id.
func (h *Handler) BuscarSetor(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	s, err := h.setores.GetSetor(r.Context(), id)
	if err != nil {
		if errors.Is(err, setor.ErrNaoEncontrado) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "setor não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar setor", nil)
		return
	}

	WriteJSON(w, http.StatusOK, s)
}

// ListarTiposProcesso devolve os tipos de processo ativos.
func (h *Handler) ListarTiposProcesso(w http.ResponseWriter, r *http.Request) {
	tipos, err := h.setores.ListTiposProcesso(r.Context())
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível listar tipos de processo", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"tipos_processo": tipos})
}

// BuscarUsuario devolve dados públicos de um usuário (nome e setor).
func (h *Handler) BuscarUsuario(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromURL(w, r, "id")
	if !ok {
		return
	}

	user, err := h.usuarios.GetUsuarioByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "NOT_FOUND", "usuário não encontrado", nil)
			return
		}
		WriteError(w, http.StatusInternalServerError, "INTERNAL", "não foi possível carregar usuário", nil)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{"usuario": user})
}
