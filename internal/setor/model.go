package setor

import (
	"errors"
	"time"
)

var ErrNaoEncontrado = errors.New("setor não encontrado")

// Setor representa uma unidade organizacional que recebe processos.
type Setor struct {
	ID          int64     `json:"id"`
	Nome        string    `json:"nome"`
	Sigla       string    `json:"sigla"`
	Descricao   *string   `json:"descricao,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Responsavel *string   `json:"responsavel,omitempty"`
	Ativo       bool      `json:"ativo"`
	CriadoEm    time.Time `json:"criado_em"`
}

// TipoProcesso classifica processos na autuação.
type TipoProcesso struct {
	ID        int64     `json:"id"`
	Nome      string    `json:"nome"`
	Descricao *string   `json:"descricao,omitempty"`
	Cor       string    `json:"cor"`
	Ativo     bool      `json:"ativo"`
	CriadoEm  time.Time `json:"criado_em"`
}
