package processo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cbbasket/processos/internal/db"
)

// querier cobre pool e transação para as escritas compartilhadas.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository implementa Repository sobre pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository cria instância do repositório.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const processoColumns = `
    p.id, p.numero_protocolo, p.ano, p.tipo_processo_id, p.assunto, p.especificacao,
    p.interessado, p.status, p.prioridade, p.setor_atual_id, p.criado_por,
    p.prazo_dias, p.data_prazo, p.data_autuacao, p.data_conclusao, p.criado_em, p.atualizado_em,
    EXISTS(
        SELECT 1 FROM tramitacoes t
        WHERE t.processo_id = p.id
          AND t.tipo_tramitacao = 'aprovacao'
          AND t.status_aprovacao = 'pendente'
    ) AS bloqueado`

const tramitacaoColumns = `
    id, processo_id, setor_origem_id, setor_destino_id, tipo_tramitacao, observacao,
    enviado_por, data_envio, status_aprovacao, aprovado_por, data_aprovacao,
    observacao_decisao, motivo_rejeicao`

// Criar autua o processo atribuindo número de protocolo sequencial por ano.
// O advisory lock serializa a numeração dentro do mesmo ano.
func (r *PostgresRepository) Criar(ctx context.Context, input CriarInput, criadoPor int64) (*Processo, error) {
	var proc *Processo

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		ano := time.Now().Year()

		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(ano)); err != nil {
			return err
		}

		var sequencial int64
		if err := tx.QueryRow(ctx, `
            SELECT COALESCE(MAX(sequencial), 0) + 1 FROM processos WHERE ano = $1
        `, ano).Scan(&sequencial); err != nil {
			return err
		}

		numeroProtocolo := fmt.Sprintf("%d.CBB.%06d-1", ano, sequencial)

		row := tx.QueryRow(ctx, `
            INSERT INTO processos (
                numero_protocolo, ano, sequencial, tipo_processo_id, assunto, especificacao,
                interessado, status, prioridade, setor_atual_id, criado_por, prazo_dias, data_prazo
            )
            VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), 'aberto', $8, $9, $10, $11,
                    CASE WHEN $11::int IS NULL THEN NULL ELSE now() + make_interval(days => $11) END)
            RETURNING id
        `, numeroProtocolo, ano, sequencial, input.TipoProcessoID, input.Assunto,
			input.Especificacao, input.Interessado, input.Prioridade,
			input.SetorDestinoID, criadoPor, input.PrazoDias)

		var id int64
		if err := row.Scan(&id); err != nil {
			return err
		}

		created, err := scanProcesso(tx.QueryRow(ctx, `SELECT `+processoColumns+` FROM processos p WHERE p.id = $1`, id))
		if err != nil {
			return err
		}
		proc = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// Atualizar aplica somente os campos presentes no input.
func (r *PostgresRepository) Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Processo, error) {
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

	if input.TipoProcessoID != nil {
		set("tipo_processo_id = $%d", *input.TipoProcessoID)
	}
	if input.Assunto != nil {
		set("assunto = $%d", *input.Assunto)
	}
	if input.Especificacao != nil {
		set("especificacao = NULLIF($%d, '')", strings.TrimSpace(*input.Especificacao))
	}
	if input.Interessado != nil {
		set("interessado = NULLIF($%d, '')", strings.TrimSpace(*input.Interessado))
	}
	if input.Prioridade != nil {
		set("prioridade = $%d", *input.Prioridade)
	}
	if input.PrazoDias != nil {
		sets = append(sets, fmt.Sprintf(
			"prazo_dias = $%d, data_prazo = data_autuacao + make_interval(days => $%d)", idx, idx))
		args = append(args, *input.PrazoDias)
		idx++
	}

	if len(sets) == 0 {
		return r.Get(ctx, id)
	}

	sets = append(sets, "atualizado_em = now()")
	args = append(args, id)

	cmd, err := r.pool.Exec(ctx, fmt.Sprintf(
		"UPDATE processos SET %s WHERE id = $%d", strings.Join(sets, ", "), idx), args...)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNaoEncontrado
	}

	return r.Get(ctx, id)
}

// Get busca um processo por id.
func (r *PostgresRepository) Get(ctx context.Context, id int64) (*Processo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+processoColumns+` FROM processos p WHERE p.id = $1`, id)
	return scanProcesso(row)
}

// GetPorProtocolo busca um processo pelo número de protocolo.
func (r *PostgresRepository) GetPorProtocolo(ctx context.Context, numeroProtocolo string) (*Processo, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+processoColumns+` FROM processos p WHERE p.numero_protocolo = $1`, numeroProtocolo)
	return scanProcesso(row)
}

// Listar aplica filtros simples com paginação.
func (r *PostgresRepository) Listar(ctx context.Context, filtro Filtro) ([]Processo, error) {
	base := `SELECT ` + processoColumns + ` FROM processos p`

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	like := func(field, value string) {
		clauses = append(clauses, fmt.Sprintf("p.%s ILIKE $%d", field, idx))
		args = append(args, "%"+strings.TrimSpace(value)+"%")
		idx++
	}

	if filtro.NumeroProtocolo != "" {
		like("numero_protocolo", filtro.NumeroProtocolo)
	}
	if filtro.Assunto != "" {
		like("assunto", filtro.Assunto)
	}
	if filtro.Interessado != "" {
		like("interessado", filtro.Interessado)
	}
	if filtro.TipoProcessoID != nil {
		clauses = append(clauses, fmt.Sprintf("p.tipo_processo_id = $%d", idx))
		args = append(args, *filtro.TipoProcessoID)
		idx++
	}
	if filtro.Status != "" {
		clauses = append(clauses, fmt.Sprintf("p.status = $%d", idx))
		args = append(args, strings.ToLower(strings.TrimSpace(filtro.Status)))
		idx++
	}
	if filtro.SetorAtualID != nil {
		clauses = append(clauses, fmt.Sprintf("p.setor_atual_id = $%d", idx))
		args = append(args, *filtro.SetorAtualID)
		idx++
	}
	if filtro.CriadoPor != nil {
		clauses = append(clauses, fmt.Sprintf("p.criado_por = $%d", idx))
		args = append(args, *filtro.CriadoPor)
		idx++
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	limit := filtro.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := filtro.Offset
	if offset < 0 {
		offset = 0
	}

	query += fmt.Sprintf(" ORDER BY p.data_autuacao DESC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var processos []Processo
	for rows.Next() {
		proc, err := scanProcesso(rows)
		if err != nil {
			return nil, err
		}
		processos = append(processos, *proc)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return processos, nil
}

// AtualizarStatus grava o novo status já validado pela máquina de estados.
// Reabrir limpa a data de conclusão; concluir registra o momento.
func (r *PostgresRepository) AtualizarStatus(ctx context.Context, id int64, status string, concluir bool) (*Processo, error) {
	var dataConclusao string
	switch {
	case concluir:
		dataConclusao = "now()"
	case status == StatusAberto:
		dataConclusao = "NULL"
	default:
		dataConclusao = "data_conclusao"
	}

	cmd, err := r.pool.Exec(ctx, fmt.Sprintf(`
        UPDATE processos
        SET status = $2, data_conclusao = %s, atualizado_em = now()
        WHERE id = $1
    `, dataConclusao), id, status)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNaoEncontrado
	}

	return r.Get(ctx, id)
}

// InserirTramitacao registra o envio e move o processo para o setor de destino.
func (r *PostgresRepository) InserirTramitacao(ctx context.Context, input TramitarInput, setorOrigemID, enviadoPor int64) (*Tramitacao, error) {
	var tram *Tramitacao

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		inserted, err := inserirTramitacaoTx(ctx, tx, input, setorOrigemID, enviadoPor)
		if err != nil {
			return err
		}
		tram = inserted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tram, nil
}

func inserirTramitacaoTx(ctx context.Context, q querier, input TramitarInput, setorOrigemID, enviadoPor int64) (*Tramitacao, error) {
	row := q.QueryRow(ctx, `
        INSERT INTO tramitacoes (
            processo_id, setor_origem_id, setor_destino_id, tipo_tramitacao,
            observacao, enviado_por, status_aprovacao
        )
        VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, 'pendente')
        RETURNING `+tramitacaoColumns+`
    `, input.ProcessoID, setorOrigemID, input.SetorDestinoID,
		input.TipoTramitacao, input.Observacao, enviadoPor)

	inserted, err := scanTramitacao(row)
	if err != nil {
		return nil, err
	}

	cmd, err := q.Exec(ctx, `
        UPDATE processos
        SET setor_atual_id = $2, status = 'em_tramite', atualizado_em = now()
        WHERE id = $1
    `, input.ProcessoID, input.SetorDestinoID)
	if err != nil {
		return nil, err
	}
	if cmd.RowsAffected() == 0 {
		return nil, ErrNaoEncontrado
	}

	return inserted, nil
}

// ListarTramitacoes devolve o histórico por ordem de envio.
func (r *PostgresRepository) ListarTramitacoes(ctx context.Context, processoID int64) ([]Tramitacao, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT `+tramitacaoColumns+`
        FROM tramitacoes
        WHERE processo_id = $1
        ORDER BY data_envio ASC, id ASC
    `, processoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tramitacoes []Tramitacao
	for rows.Next() {
		tram, err := scanTramitacao(rows)
		if err != nil {
			return nil, err
		}
		tramitacoes = append(tramitacoes, *tram)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tramitacoes, nil
}

// GetTramitacao busca uma tramitação específica.
func (r *PostgresRepository) GetTramitacao(ctx context.Context, id int64) (*Tramitacao, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT `+tramitacaoColumns+`
        FROM tramitacoes
        WHERE id = $1
    `, id)

	tram, err := scanTramitacao(row)
	if err != nil {
		if errors.Is(err, ErrNaoEncontrado) {
			return nil, ErrTramitacaoNaoEncontrada
		}
		return nil, err
	}
	return tram, nil
}

// TemAprovacaoPendente indica se o processo está bloqueado para tramitar/concluir.
func (r *PostgresRepository) TemAprovacaoPendente(ctx context.Context, processoID int64) (bool, error) {
	var pendente bool
	err := r.pool.QueryRow(ctx, `
        SELECT EXISTS(
            SELECT 1 FROM tramitacoes
            WHERE processo_id = $1
              AND tipo_tramitacao = 'aprovacao'
              AND status_aprovacao = 'pendente'
        )
    `, processoID).Scan(&pendente)
	return pendente, err
}

// RegistrarDecisao grava a aprovação uma única vez. A cláusula de status
// pendente garante que uma segunda decisão concorrente não sobrescreve.
func (r *PostgresRepository) RegistrarDecisao(ctx context.Context, tramitacaoID int64, status string, decididoPor int64, observacao *string) (*Tramitacao, error) {
	row := r.pool.QueryRow(ctx, `
        UPDATE tramitacoes
        SET status_aprovacao = $2,
            aprovado_por = $3,
            data_aprovacao = now(),
            observacao_decisao = $4
        WHERE id = $1 AND status_aprovacao = 'pendente'
        RETURNING `+tramitacaoColumns,
		tramitacaoID, status, decididoPor, observacao)

	tram, err := scanTramitacao(row)
	if err == nil {
		return tram, nil
	}
	if !errors.Is(err, ErrNaoEncontrado) {
		return nil, err
	}

	// Nenhuma linha atualizada: tramitação inexistente ou já decidida.
	if _, lookupErr := r.GetTramitacao(ctx, tramitacaoID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrTransicaoInvalida
}

// RegistrarRejeicao grava a rejeição e a devolução ao setor de origem na mesma
// transação: ou a tramitação fica rejeitada com a devolução criada, ou nada muda.
func (r *PostgresRepository) RegistrarRejeicao(ctx context.Context, tramitacaoID, decididoPor int64, motivo string) (*Tramitacao, error) {
	var rejeitada *Tramitacao

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
            UPDATE tramitacoes
            SET status_aprovacao = 'rejeitado',
                aprovado_por = $2,
                data_aprovacao = now(),
                motivo_rejeicao = $3
            WHERE id = $1 AND status_aprovacao = 'pendente'
            RETURNING `+tramitacaoColumns,
			tramitacaoID, decididoPor, motivo)

		tram, err := scanTramitacao(row)
		if err != nil {
			if !errors.Is(err, ErrNaoEncontrado) {
				return err
			}
			if _, lookupErr := scanTramitacao(tx.QueryRow(ctx, `
                SELECT `+tramitacaoColumns+` FROM tramitacoes WHERE id = $1
            `, tramitacaoID)); lookupErr != nil {
				if errors.Is(lookupErr, ErrNaoEncontrado) {
					return ErrTramitacaoNaoEncontrada
				}
				return lookupErr
			}
			return ErrTransicaoInvalida
		}

		devolucao := TramitarInput{
			ProcessoID:     tram.ProcessoID,
			SetorDestinoID: tram.SetorOrigemID,
			Observacao:     fmt.Sprintf("REJEITADO: %s", motivo),
			TipoTramitacao: TipoDespacho,
		}
		if _, err := inserirTramitacaoTx(ctx, tx, devolucao, tram.SetorDestinoID, decididoPor); err != nil {
			return err
		}

		rejeitada = tram
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rejeitada, nil
}

// Stats agrega os contadores do dashboard em duas consultas.
func (r *PostgresRepository) Stats(ctx context.Context, usuarioID int64, setorID *int64) (*DashboardStats, error) {
	stats := &DashboardStats{}

	err := r.pool.QueryRow(ctx, `
        SELECT count(*),
               count(*) FILTER (WHERE status = 'aberto'),
               count(*) FILTER (WHERE status = 'em_tramite'),
               count(*) FILTER (WHERE status = 'concluido'),
               count(*) FILTER (WHERE criado_por = $1),
               count(*) FILTER (WHERE setor_atual_id = $2)
        FROM processos
    `, usuarioID, setorID).Scan(
		&stats.TotalProcessos,
		&stats.ProcessosAbertos,
		&stats.ProcessosEmTramite,
		&stats.ProcessosConcluidos,
		&stats.MeusProcessos,
		&stats.ProcessosMeuSetor,
	)
	if err != nil {
		return nil, err
	}

	err = r.pool.QueryRow(ctx, `
        SELECT count(*)
        FROM tramitacoes
        WHERE tipo_tramitacao = 'aprovacao'
          AND status_aprovacao = 'pendente'
          AND setor_destino_id = $1
    `, setorID).Scan(&stats.PendentesAprovacao)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func scanProcesso(row pgx.Row) (*Processo, error) {
	var p Processo
	err := row.Scan(
		&p.ID, &p.NumeroProtocolo, &p.Ano, &p.TipoProcessoID, &p.Assunto, &p.Especificacao,
		&p.Interessado, &p.Status, &p.Prioridade, &p.SetorAtualID, &p.CriadoPor,
		&p.PrazoDias, &p.DataPrazo, &p.DataAutuacao, &p.DataConclusao, &p.CriadoEm, &p.AtualizadoEm,
		&p.Bloqueado,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &p, nil
}

func scanTramitacao(row pgx.Row) (*Tramitacao, error) {
	var t Tramitacao
	err := row.Scan(
		&t.ID, &t.ProcessoID, &t.SetorOrigemID, &t.SetorDestinoID, &t.TipoTramitacao,
		&t.Observacao, &t.EnviadoPor, &t.DataEnvio, &t.StatusAprovacao, &t.AprovadoPor,
		&t.DataAprovacao, &t.ObservacaoDecisao, &t.MotivoRejeicao,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNaoEncontrado
		}
		return nil, err
	}
	return &t, nil
}
