package repo

import "time"

// Usuario representa um usuário interno do sistema de processos.
type Usuario struct {
	ID           int64      `json:"id"`
	Nome         string     `json:"nome"`
	Email        string     `json:"email"`
	SenhaHash    string     `json:"-"`
	SetorID      *int64     `json:"setor_id"`
	Cargo        *string    `json:"cargo"`
	Ativo        bool       `json:"ativo"`
	CriadoEm     time.Time  `json:"criado_em"`
	UltimoAcesso *time.Time `json:"ultimo_acesso,omitempty"`
}
