package processo

import (
	"context"
	"fmt"
	"strings"
)

// Repository define o acesso a dados usado pelo serviço de processos.
type Repository interface {
	Criar(ctx context.Context, input CriarInput, criadoPor int64) (*Processo, error)
	Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Processo, error)
	Get(ctx context.Context, id int64) (*Processo, error)
	GetPorProtocolo(ctx context.Context, numeroProtocolo string) (*Processo, error)
	Listar(ctx context.Context, filtro Filtro) ([]Processo, error)
	AtualizarStatus(ctx context.Context, id int64, status string, concluir bool) (*Processo, error)
	InserirTramitacao(ctx context.Context, input TramitarInput, setorOrigemID, enviadoPor int64) (*Tramitacao, error)
	ListarTramitacoes(ctx context.Context, processoID int64) ([]Tramitacao, error)
	GetTramitacao(ctx context.Context, id int64) (*Tramitacao, error)
	TemAprovacaoPendente(ctx context.Context, processoID int64) (bool, error)
	RegistrarDecisao(ctx context.Context, tramitacaoID int64, status string, decididoPor int64, observacao *string) (*Tramitacao, error)
	RegistrarRejeicao(ctx context.Context, tramitacaoID, decididoPor int64, motivo string) (*Tramitacao, error)
	Stats(ctx context.Context, usuarioID int64, setorID *int64) (*DashboardStats, error)
}

// Service reúne as regras de ciclo de vida de processos e tramitações.
type Service struct {
	repo Repository
}

// NewService cria uma nova instância do serviço.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Criar autua um novo processo com status aberto e protocolo gerado.
func (s *Service) Criar(ctx context.Context, input CriarInput, usuarioID int64) (*Processo, error) {
	input.Assunto = strings.TrimSpace(input.Assunto)
	input.Especificacao = strings.TrimSpace(input.Especificacao)
	input.Interessado = strings.TrimSpace(input.Interessado)
	input.Prioridade = NormalizePrioridade(input.Prioridade)

	if input.Assunto == "" {
		return nil, fmt.Errorf("%w: assunto obrigatório", ErrValidacao)
	}
	if input.TipoProcessoID <= 0 {
		return nil, fmt.Errorf("%w: tipo de processo obrigatório", ErrValidacao)
	}
	if input.SetorDestinoID <= 0 {
		return nil, fmt.Errorf("%w: setor de destino obrigatório", ErrValidacao)
	}
	if !IsValidPrioridade(input.Prioridade) {
		return nil, ErrPrioridadeInvalida
	}
	if input.PrazoDias != nil && *input.PrazoDias <= 0 {
		return nil, fmt.Errorf("%w: prazo em dias deve ser positivo", ErrValidacao)
	}

	return s.repo.Criar(ctx, input, usuarioID)
}

// Atualizar altera os campos editáveis de um processo existente.
func (s *Service) Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Processo, error) {
	if input.TipoProcessoID == nil && input.Assunto == nil && input.Especificacao == nil &&
		input.Interessado == nil && input.Prioridade == nil && input.PrazoDias == nil {
		return nil, fmt.Errorf("%w: nenhum campo para atualizar", ErrValidacao)
	}

	if input.Assunto != nil {
		v := strings.TrimSpace(*input.Assunto)
		if v == "" {
			return nil, fmt.Errorf("%w: assunto obrigatório", ErrValidacao)
		}
		input.Assunto = &v
	}
	if input.TipoProcessoID != nil && *input.TipoProcessoID <= 0 {
		return nil, fmt.Errorf("%w: tipo de processo inválido", ErrValidacao)
	}
	if input.Prioridade != nil {
		v := NormalizePrioridade(*input.Prioridade)
		if !IsValidPrioridade(v) {
			return nil, ErrPrioridadeInvalida
		}
		input.Prioridade = &v
	}
	if input.PrazoDias != nil && *input.PrazoDias <= 0 {
		return nil, fmt.Errorf("%w: prazo em dias deve ser positivo", ErrValidacao)
	}

	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	return s.repo.Atualizar(ctx, id, input)
}

// Buscar recupera um processo por id.
func (s *Service) Buscar(ctx context.Context, id int64) (*Processo, error) {
	return s.repo.Get(ctx, id)
}

// BuscarPorProtocolo recupera um processo pelo número de protocolo.
func (s *Service) BuscarPorProtocolo(ctx context.Context, numero string) (*Processo, error) {
	numero = strings.TrimSpace(numero)
	if numero == "" {
		return nil, fmt.Errorf("%w: número de protocolo obrigatório", ErrValidacao)
	}
	return s.repo.GetPorProtocolo(ctx, numero)
}

// Listar devolve processos dentro do filtro informado.
func (s *Service) Listar(ctx context.Context, filtro Filtro) ([]Processo, error) {
	if filtro.Status != "" && !IsValidStatus(filtro.Status) {
		return nil, ErrStatusInvalido
	}
	return s.repo.Listar(ctx, filtro)
}

// Tramitar envia o processo do setor do usuário para o setor de destino.
// O processo fica bloqueado para novos envios enquanto houver tramitação de
// aprovação pendente.
func (s *Service) Tramitar(ctx context.Context, input TramitarInput, usuarioID int64, setorUsuarioID *int64) (*Tramitacao, error) {
	if setorUsuarioID == nil {
		return nil, fmt.Errorf("%w: usuário sem setor definido", ErrValidacao)
	}
	if input.SetorDestinoID <= 0 {
		return nil, fmt.Errorf("%w: setor de destino obrigatório", ErrValidacao)
	}
	input.TipoTramitacao = NormalizeTipoTramitacao(input.TipoTramitacao)
	if !IsValidTipoTramitacao(input.TipoTramitacao) {
		return nil, ErrTipoTramitacaoInvalido
	}
	input.Observacao = strings.TrimSpace(input.Observacao)

	proc, err := s.repo.Get(ctx, input.ProcessoID)
	if err != nil {
		return nil, err
	}

	if _, err := ProximoStatus(proc.Status, AcaoTramitar); err != nil {
		return nil, err
	}

	bloqueado, err := s.repo.TemAprovacaoPendente(ctx, proc.ID)
	if err != nil {
		return nil, err
	}
	if bloqueado {
		return nil, ErrBloqueado
	}

	return s.repo.InserirTramitacao(ctx, input, *setorUsuarioID, usuarioID)
}

// ListarTramitacoes devolve o histórico em ordem de envio ascendente.
func (s *Service) ListarTramitacoes(ctx context.Context, processoID int64) ([]Tramitacao, error) {
	if _, err := s.repo.Get(ctx, processoID); err != nil {
		return nil, err
	}
	return s.repo.ListarTramitacoes(ctx, processoID)
}

// Concluir encerra um processo em trâmite sem pendências de aprovação.
func (s *Service) Concluir(ctx context.Context, processoID, usuarioID int64) (*Processo, error) {
	proc, err := s.repo.Get(ctx, processoID)
	if err != nil {
		return nil, err
	}

	proximo, err := ProximoStatus(proc.Status, AcaoConcluir)
	if err != nil {
		return nil, err
	}

	bloqueado, err := s.repo.TemAprovacaoPendente(ctx, proc.ID)
	if err != nil {
		return nil, err
	}
	if bloqueado {
		return nil, ErrBloqueado
	}

	return s.repo.AtualizarStatus(ctx, proc.ID, proximo, true)
}

// Arquivar move um processo concluído para o arquivo.
func (s *Service) Arquivar(ctx context.Context, processoID, usuarioID int64) (*Processo, error) {
	proc, err := s.repo.Get(ctx, processoID)
	if err != nil {
		return nil, err
	}

	proximo, err := ProximoStatus(proc.Status, AcaoArquivar)
	if err != nil {
		return nil, err
	}

	return s.repo.AtualizarStatus(ctx, proc.ID, proximo, false)
}

// Reabrir devolve um processo concluído ou arquivado ao estado aberto.
func (s *Service) Reabrir(ctx context.Context, processoID, usuarioID int64) (*Processo, error) {
	proc, err := s.repo.Get(ctx, processoID)
	if err != nil {
		return nil, err
	}

	proximo, err := ProximoStatus(proc.Status, AcaoReabrir)
	if err != nil {
		return nil, err
	}

	return s.repo.AtualizarStatus(ctx, proc.ID, proximo, false)
}

// Aprovar registra a decisão positiva do setor de destino.
func (s *Service) Aprovar(ctx context.Context, tramitacaoID, usuarioID int64, setorUsuarioID *int64, observacao string) (*Tramitacao, error) {
	tram, err := s.decisaoPermitida(ctx, tramitacaoID, setorUsuarioID)
	if err != nil {
		return nil, err
	}

	var obs *string
	if v := strings.TrimSpace(observacao); v != "" {
		obs = &v
	}

	return s.repo.RegistrarDecisao(ctx, tram.ID, AprovacaoAprovado, usuarioID, obs)
}

// Rejeitar registra a decisão negativa e devolve o processo ao setor de
// origem com uma nova tramitação de despacho. Rejeição e devolução são
// gravadas atomicamente pelo repositório.
func (s *Service) Rejeitar(ctx context.Context, tramitacaoID, usuarioID int64, setorUsuarioID *int64, motivo string) (*Tramitacao, error) {
	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		return nil, fmt.Errorf("%w: motivo obrigatório", ErrValidacao)
	}

	tram, err := s.decisaoPermitida(ctx, tramitacaoID, setorUsuarioID)
	if err != nil {
		return nil, err
	}

	return s.repo.RegistrarRejeicao(ctx, tram.ID, usuarioID, motivo)
}

// Stats agrega contadores do dashboard para o usuário.
func (s *Service) Stats(ctx context.Context, usuarioID int64, setorID *int64) (*DashboardStats, error) {
	return s.repo.Stats(ctx, usuarioID, setorID)
}

func (s *Service) decisaoPermitida(ctx context.Context, tramitacaoID int64, setorUsuarioID *int64) (*Tramitacao, error) {
	tram, err := s.repo.GetTramitacao(ctx, tramitacaoID)
	if err != nil {
		return nil, err
	}

	if !tram.ExigeDecisao() {
		return nil, ErrTransicaoInvalida
	}
	if setorUsuarioID == nil || *setorUsuarioID != tram.SetorDestinoID {
		return nil, ErrSemPermissao
	}
	if tram.StatusAprovacao != AprovacaoPendente {
		return nil, ErrTransicaoInvalida
	}

	return tram, nil
}
