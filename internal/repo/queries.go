package repo

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries provê acesso às tabelas de usuários.
type Queries struct {
	pool *pgxpool.Pool
}

// New cria instância de Queries sobre o pool.
func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

const usuarioColumns = `id, nome, email, senha_hash, setor_id, cargo, ativo, criado_em, ultimo_acesso`

// GetUsuarioByEmail busca usuário por e-mail normalizado.
func (q *Queries) GetUsuarioByEmail(ctx context.Context, email string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE lower(email) = $1
    `, strings.ToLower(strings.TrimSpace(email)))
	return scanUsuario(row)
}

// GetUsuarioByID busca usuário por id.
func (q *Queries) GetUsuarioByID(ctx context.Context, id int64) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        SELECT `+usuarioColumns+`
        FROM usuarios
        WHERE id = $1
    `, id)
	return scanUsuario(row)
}

// TouchUltimoAcesso registra o momento do login.
func (q *Queries) TouchUltimoAcesso(ctx context.Context, id int64) error {
	_, err := q.pool.Exec(ctx, `UPDATE usuarios SET ultimo_acesso = now() WHERE id = $1`, id)
	return err
}

// CriarUsuario insere novo usuário com hash de senha já calculado.
func (q *Queries) CriarUsuario(ctx context.Context, nome, email, senhaHash string, setorID *int64, cargo *string) (Usuario, error) {
	row := q.pool.QueryRow(ctx, `
        INSERT INTO usuarios (nome, email, senha_hash, setor_id, cargo, ativo)
        VALUES ($1, $2, $3, $4, $5, true)
        RETURNING `+usuarioColumns+`
    `, strings.TrimSpace(nome), strings.ToLower(strings.TrimSpace(email)), senhaHash, setorID, cargo)
	return scanUsuario(row)
}

func scanUsuario(row pgx.Row) (Usuario, error) {
	var u Usuario
	err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.SenhaHash, &u.SetorID, &u.Cargo, &u.Ativo, &u.CriadoEm, &u.UltimoAcesso)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Usuario{}, ErrNotFound
		}
		return Usuario{}, err
	}
	return u, nil
}
