package processo

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNaoEncontrado           = errors.New("processo não encontrado")
	ErrTramitacaoNaoEncontrada = errors.New("tramitação não encontrada")
	ErrTransicaoInvalida       = errors.New("transição de status inválida")
	ErrBloqueado               = errors.New("processo bloqueado por aprovação pendente")
	ErrSemPermissao            = errors.New("usuário sem permissão para decidir esta tramitação")

	// ErrValidacao marca entrada inválida do cliente. Handlers respondem 400;
	// qualquer outro erro não mapeado é tratado como falha interna.
	ErrValidacao              = errors.New("dados inválidos")
	ErrStatusInvalido         = fmt.Errorf("%w: status desconhecido", ErrValidacao)
	ErrPrioridadeInvalida     = fmt.Errorf("%w: prioridade inválida", ErrValidacao)
	ErrTipoTramitacaoInvalido = fmt.Errorf("%w: tipo de tramitação inválido", ErrValidacao)
)

const (
	StatusAberto    = "aberto"
	StatusEmTramite = "em_tramite"
	StatusConcluido = "concluido"
	StatusArquivado = "arquivado"

	PrioridadeBaixa   = "baixa"
	PrioridadeNormal  = "normal"
	PrioridadeAlta    = "alta"
	PrioridadeUrgente = "urgente"

	// Tipos de tramitação: despacho é informativo, parecer solicita opinião
	// e aprovacao exige decisão do setor de destino antes da conclusão.
	TipoDespacho  = "despacho"
	TipoParecer   = "parecer"
	TipoAprovacao = "aprovacao"

	AprovacaoPendente  = "pendente"
	AprovacaoAprovado  = "aprovado"
	AprovacaoRejeitado = "rejeitado"
)

var (
	validStatuses = map[string]struct{}{
		StatusAberto:    {},
		StatusEmTramite: {},
		StatusConcluido: {},
		StatusArquivado: {},
	}
	validPrioridades = map[string]struct{}{
		PrioridadeBaixa:   {},
		PrioridadeNormal:  {},
		PrioridadeAlta:    {},
		PrioridadeUrgente: {},
	}
	validTiposTramitacao = map[string]struct{}{
		TipoDespacho:  {},
		TipoParecer:   {},
		TipoAprovacao: {},
	}
)

// Processo representa um processo administrativo tramitável entre setores.
type Processo struct {
	ID              int64      `json:"id"`
	NumeroProtocolo string     `json:"numero_protocolo"`
	Ano             int        `json:"ano"`
	TipoProcessoID  int64      `json:"tipo_processo_id"`
	Assunto         string     `json:"assunto"`
	Especificacao   *string    `json:"especificacao,omitempty"`
	Interessado     *string    `json:"interessado,omitempty"`
	Status          string     `json:"status"`
	Prioridade      string     `json:"prioridade"`
	SetorAtualID    *int64     `json:"setor_atual_id"`
	CriadoPor       int64      `json:"criado_por"`
	PrazoDias       *int       `json:"prazo_dias,omitempty"`
	DataPrazo       *time.Time `json:"data_prazo,omitempty"`
	DataAutuacao    time.Time  `json:"data_autuacao"`
	DataConclusao   *time.Time `json:"data_conclusao,omitempty"`
	CriadoEm        time.Time  `json:"criado_em"`
	AtualizadoEm    time.Time  `json:"atualizado_em"`

	// Bloqueado é derivado no backend: existe tramitação de aprovação
	// pendente para este processo. Clientes não recalculam.
	Bloqueado bool `json:"bloqueado"`
}

// Tramitacao representa um envio do processo de um setor para outro.
type Tramitacao struct {
	ID              int64      `json:"id"`
	ProcessoID      int64      `json:"processo_id"`
	SetorOrigemID   int64      `json:"setor_origem_id"`
	SetorDestinoID  int64      `json:"setor_destino_id"`
	TipoTramitacao  string     `json:"tipo_tramitacao"`
	Observacao      *string    `json:"observacao,omitempty"`
	EnviadoPor      int64      `json:"enviado_por"`
	DataEnvio       time.Time  `json:"data_envio"`
	StatusAprovacao string     `json:"status_aprovacao"`
	AprovadoPor       *int64     `json:"aprovado_por,omitempty"`
	DataAprovacao     *time.Time `json:"data_aprovacao,omitempty"`
	ObservacaoDecisao *string    `json:"observacao_decisao,omitempty"`
	MotivoRejeicao    *string    `json:"motivo_rejeicao,omitempty"`
}

// ExigeDecisao indica se a tramitação precisa de aprovação do destino.
func (t Tramitacao) ExigeDecisao() bool {
	return t.TipoTramitacao == TipoAprovacao
}

// PendenteParaSetor indica se a tramitação aguarda decisão do setor informado.
func (t Tramitacao) PendenteParaSetor(setorID int64) bool {
	return t.ExigeDecisao() && t.StatusAprovacao == AprovacaoPendente && t.SetorDestinoID == setorID
}

// CriarInput encapsula campos para autuação de um novo processo.
type CriarInput struct {
	TipoProcessoID int64
	Assunto        string
	Especificacao  string
	Interessado    string
	Prioridade     string
	SetorDestinoID int64
	PrazoDias      *int
}

// AtualizarInput altera campos editáveis do processo; campo nil mantém o
// valor atual.
type AtualizarInput struct {
	TipoProcessoID *int64
	Assunto        *string
	Especificacao  *string
	Interessado    *string
	Prioridade     *string
	PrazoDias      *int
}

// TramitarInput encapsula um envio entre setores.
type TramitarInput struct {
	ProcessoID     int64
	SetorDestinoID int64
	Observacao     string
	TipoTramitacao string
}

// Filtro delimita a listagem de processos.
type Filtro struct {
	NumeroProtocolo string
	Assunto         string
	Interessado     string
	TipoProcessoID  *int64
	Status          string
	SetorAtualID    *int64
	CriadoPor       *int64
	Limit           int
	Offset          int
}

// DashboardStats agrega contadores exibidos na tela inicial.
type DashboardStats struct {
	TotalProcessos      int64 `json:"total_processos"`
	ProcessosAbertos    int64 `json:"processos_abertos"`
	ProcessosEmTramite  int64 `json:"processos_em_tramite"`
	ProcessosConcluidos int64 `json:"processos_concluidos"`
	MeusProcessos       int64 `json:"meus_processos"`
	ProcessosMeuSetor   int64 `json:"processos_meu_setor"`
	PendentesAprovacao  int64 `json:"pendentes_aprovacao"`
}

// NormalizePrioridade padroniza prioridade com default normal.
func NormalizePrioridade(prioridade string) string {
	prioridade = strings.ToLower(strings.TrimSpace(prioridade))
	if prioridade == "" {
		return PrioridadeNormal
	}
	return prioridade
}

// NormalizeTipoTramitacao padroniza o tipo com default despacho.
func NormalizeTipoTramitacao(tipo string) string {
	tipo = strings.ToLower(strings.TrimSpace(tipo))
	if tipo == "" {
		return TipoDespacho
	}
	return tipo
}

// IsValidStatus indica se o status é aceito.
func IsValidStatus(status string) bool {
	_, ok := validStatuses[strings.ToLower(strings.TrimSpace(status))]
	return ok
}

// IsValidPrioridade indica se a prioridade é válida.
func IsValidPrioridade(prioridade string) bool {
	_, ok := validPrioridades[prioridade]
	return ok
}

// IsValidTipoTramitacao verifica o tipo de tramitação.
func IsValidTipoTramitacao(tipo string) bool {
	_, ok := validTiposTramitacao[tipo]
	return ok
}

// Ações que movem o processo pela máquina de estados.
const (
	AcaoTramitar = "tramitar"
	AcaoConcluir = "concluir"
	AcaoArquivar = "arquivar"
	AcaoReabrir  = "reabrir"
)

// transicoes define as arestas permitidas: status atual -> ação -> próximo status.
var transicoes = map[string]map[string]string{
	StatusAberto: {
		AcaoTramitar: StatusEmTramite,
	},
	StatusEmTramite: {
		AcaoTramitar: StatusEmTramite,
		AcaoConcluir: StatusConcluido,
	},
	StatusConcluido: {
		AcaoArquivar: StatusArquivado,
		AcaoReabrir:  StatusAberto,
	},
	StatusArquivado: {
		AcaoReabrir: StatusAberto,
	},
}

// ProximoStatus resolve a aresta da máquina de estados para a ação pedida.
// Retorna ErrTransicaoInvalida quando a ação não é permitida no status atual.
func ProximoStatus(atual, acao string) (string, error) {
	arestas, ok := transicoes[atual]
	if !ok {
		return "", ErrStatusInvalido
	}
	proximo, ok := arestas[acao]
	if !ok {
		return "", ErrTransicaoInvalida
	}
	return proximo, nil
}
