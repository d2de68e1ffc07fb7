package documento

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/cbbasket/processos/internal/storage"
)

// Repository define o acesso a dados usado pelo serviço de documentos.
type Repository interface {
	Criar(ctx context.Context, doc Documento) (*Documento, error)
	Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Documento, error)
	Get(ctx context.Context, id int64) (*Documento, error)
	ListarPorProcesso(ctx context.Context, processoID int64) ([]Documento, error)
	Excluir(ctx context.Context, id int64) error
	ProcessoExiste(ctx context.Context, processoID int64) (bool, error)
}

// Service reúne regras de upload e download de documentos.
type Service struct {
	repo  Repository
	store storage.Storage
}

// NewService cria uma nova instância do serviço.
func NewService(repo Repository, store storage.Storage) *Service {
	return &Service{repo: repo, store: store}
}

// Upload grava o conteúdo no storage e registra os metadados do documento.
func (s *Service) Upload(ctx context.Context, input UploadInput, usuarioID int64) (*Documento, error) {
	input.Nome = strings.TrimSpace(input.Nome)
	input.Descricao = strings.TrimSpace(input.Descricao)
	input.ArquivoNome = strings.TrimSpace(input.ArquivoNome)
	input.TipoDocumento = NormalizeTipo(input.TipoDocumento)

	if input.ProcessoID <= 0 {
		return nil, fmt.Errorf("%w: processo obrigatório", ErrValidacao)
	}
	if len(input.Conteudo) == 0 {
		return nil, fmt.Errorf("%w: arquivo vazio", ErrValidacao)
	}
	if input.ArquivoNome == "" {
		return nil, fmt.Errorf("%w: nome do arquivo obrigatório", ErrValidacao)
	}
	if input.Nome == "" {
		input.Nome = input.ArquivoNome
	}
	if !IsValidTipo(input.TipoDocumento) {
		return nil, ErrTipoInvalido
	}

	existe, err := s.repo.ProcessoExiste(ctx, input.ProcessoID)
	if err != nil {
		return nil, err
	}
	if !existe {
		return nil, ErrProcessoNaoEncontrado
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := objectKey(input.ProcessoID, input.ArquivoNome)
	if err := s.store.Save(ctx, key, input.Conteudo, contentType); err != nil {
		return nil, err
	}

	var descricao *string
	if input.Descricao != "" {
		descricao = &input.Descricao
	}

	return s.repo.Criar(ctx, Documento{
		ProcessoID:     input.ProcessoID,
		TipoDocumento:  input.TipoDocumento,
		Nome:           input.Nome,
		Descricao:      descricao,
		ArquivoKey:     key,
		ArquivoNome:    input.ArquivoNome,
		ArquivoTamanho: int64(len(input.Conteudo)),
		ArquivoTipo:    contentType,
		CriadoPor:      usuarioID,
	})
}

// Atualizar altera os metadados editáveis de um documento.
func (s *Service) Atualizar(ctx context.Context, id int64, input AtualizarInput) (*Documento, error) {
	if input.Nome == nil && input.TipoDocumento == nil && input.Descricao == nil {
		return nil, fmt.Errorf("%w: nenhum campo para atualizar", ErrValidacao)
	}

	if input.Nome != nil {
		v := strings.TrimSpace(*input.Nome)
		if v == "" {
			return nil, fmt.Errorf("%w: nome obrigatório", ErrValidacao)
		}
		input.Nome = &v
	}
	if input.TipoDocumento != nil {
		v := NormalizeTipo(*input.TipoDocumento)
		if !IsValidTipo(v) {
			return nil, ErrTipoInvalido
		}
		input.TipoDocumento = &v
	}

	return s.repo.Atualizar(ctx, id, input)
}

// Excluir remove o documento e o arquivo associado. A linha de metadados é a
// fonte de verdade: falha ao remover o binário depois dela vira só aviso.
func (s *Service) Excluir(ctx context.Context, id int64) error {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Excluir(ctx, id); err != nil {
		return err
	}

	if err := s.store.Delete(ctx, doc.ArquivoKey); err != nil {
		log.Warn().Err(err).Str("arquivo_key", doc.ArquivoKey).Msg("documento excluído mas arquivo ficou órfão")
	}
	return nil
}

// Buscar recupera metadados de um documento.
func (s *Service) Buscar(ctx context.Context, id int64) (*Documento, error) {
	return s.repo.Get(ctx, id)
}

// ListarPorProcesso devolve os documentos de um processo.
func (s *Service) ListarPorProcesso(ctx context.Context, processoID int64) ([]Documento, error) {
	return s.repo.ListarPorProcesso(ctx, processoID)
}

// Download devolve os metadados e o conteúdo binário do documento.
func (s *Service) Download(ctx context.Context, id int64) (*Documento, []byte, error) {
	doc, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	data, err := s.store.Load(ctx, doc.ArquivoKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, nil, ErrArquivoNaoEncontrado
		}
		return nil, nil, err
	}

	return doc, data, nil
}

// objectKey isola os arquivos por processo e evita colisão de nomes.
func objectKey(processoID int64, arquivoNome string) string {
	ext := strings.ToLower(filepath.Ext(arquivoNome))
	return fmt.Sprintf("%d/%s%s", processoID, uuid.NewString(), ext)
}
