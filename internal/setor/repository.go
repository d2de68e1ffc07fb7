package setor

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso às tabelas de referência (setores e tipos).
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListSetores lista setores ativos em ordem alfabética.
func (r *Repository) ListSetores(ctx context.Context) ([]Setor, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, nome, sigla, descricao, email, responsavel, ativo, criado_em
        FROM setores
        WHERE ativo
        ORDER BY nome
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var setores []Setor
	for rows.Next() {
		var s Setor
		if err := rows.Scan(&s.ID, &s.Nome, &s.Sigla, &s.Descricao, &s.Email, &s.Responsavel, &s.Ativo, &s.CriadoEm); err != nil {
			return nil, err
		}
		setores = append(setores, s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return setores, nil
}

// GetSetor busca um setor por id.
func (r *Repository) GetSetor(ctx context.Context, id int64) (*Setor, error) {
	var s Setor
	err := r.pool.QueryRow(ctx, `
        SELECT id, nome, sigla, descricao, email, responsavel, ativo, criado_em
        FROM setores
        WHERE id = $1
    `, id).Scan(&s.ID, &s.Nome, &s.Sigla, &s.Descricao, &s.Email, &s.Responsavel, &s.Ativo, &s.CriadoEm)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &s, nil
}

// ListTiposProcesso lista tipos ativos em ordem alfabética.
func (r *Repository) ListTiposProcesso(ctx context.Context) ([]TipoProcesso, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT id, nome, descricao, cor, ativo, criado_em
        FROM tipos_processo
        WHERE ativo
        ORDER BY nome
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tipos []TipoProcesso
	for rows.Next() {
		var t TipoProcesso
		if err := rows.Scan(&t.ID, &t.Nome, &t.Descricao, &t.Cor, &t.Ativo, &t.CriadoEm); err != nil {
			return nil, err
		}
		tipos = append(tipos, t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tipos, nil
}
