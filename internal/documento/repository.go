package documento

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implementa Repository sobre pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const documentoColumns = `
    id, processo_id, tipo_documento, nome, descricao, arquivo_key,
    arquivo_nome, arquivo_tamanho, arquivo_tipo, criado_por, criado_em`

// Criar insere os metadados do documento.
func (r *PostgresRepository) Criar(ctx context.Context, doc Documento) (*Documento, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO documentos (
            processo_id, tipo_documento, nome, descricao, arquivo_key,
            arquivo_nome, arquivo_tamanho, arquivo_tipo, criado_por
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+documentoColumns,
		doc.ProcessoID, doc.TipoDocumento, doc.Nome, doc.Descricao, doc.ArquivoKey,
		doc.ArquivoNome, doc.ArquivoTamanho, doc.ArquivoTipo, doc.CriadoPor)
	return scanDocumento(row)
}

// Atualizar aplica somente os campos presentes no input.
func (r *PostgresRepository) Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Documento, error) {
	var (
		sets []string
		args []any
		idx  = 1
	)

	set := func(expr string, value any) {
		sets = append(sets, fmt.Sprintf(expr, idx))
		args = append(args, value)
		idx++
	}

	if input.Nome != nil {
		set("nome = $%d", *input.Nome)
	}
	if input.TipoDocumento != nil {
		set("tipo_documento = $%d", *input.TipoDocumento)
	}
	if input.Descricao != nil {
		set("descricao = NULLIF($%d, '')", strings.TrimSpace(*input.Descricao))
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	args = append(args, id)
	row := r.pool.QueryRow(ctx, fmt.Sprintf(`
        UPDATE documentos SET %s WHERE id = $%d
        RETURNING `+documentoColumns, strings.Join(sets, ", "), idx), args...)
	return scanDocumento(row)
}

// Excluir remove a linha de metadados do documento.
func (r *PostgresRepository) Excluir(ctx context.Context, id int64) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM documentos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNaoEncontrado
	}
	return nil
}

// Get busca documento por id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Documento, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+documentoColumns+`
        FROM documentos
        WHERE id = $1
    `, id)
	return scanDocumento(row)
}

// ListarPorProcesso devolve documentos do processo, mais recentes primeiro.
func (r *PostgresRepository) ListarPorProcesso(ctx context.Context, processoID int64) ([]Documento, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+documentoColumns+`
        FROM documentos
        WHERE processo_id = $1
        ORDER BY criado_em DESC, id DESC
    `, processoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var documentos []Documento
	for rows.Next() {
		doc, err := scanDocumento(rows)
		if err != nil {
			return nil, err
		}
		documentos = append(documentos, *doc)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return documentos, nil
}

// ProcessoExiste verifica a existência do processo antes do upload.
func (r *PostgresRepository) ProcessoExiste(ctx context.Context, processoID int64) (bool, error) {
	var existe bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM processos WHERE id = $1)`, processoID).Scan(&existe)
	return existe, err
}

func scanDocumento(row pgx.Row) (*Documento, error) {
	var d Documento
	err := row.Scan(
		&d.ID, &d.ProcessoID, &d.TipoDocumento, &d.Nome, &d.Descricao, &d.ArquivoKey,
		&d.ArquivoNome, &d.ArquivoTamanho, &d.ArquivoTipo, &d.CriadoPor, &d.CriadoEm,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &d, nil
}
