package documento

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNaoEncontrado         = errors.New("documento não encontrado")
	ErrProcessoNaoEncontrado = errors.New("processo não encontrado")
	ErrArquivoNaoEncontrado  = errors.New("arquivo do documento não encontrado")

	// ErrValidacao marca entrada inválida do cliente; handlers respondem 400.
	ErrValidacao    = errors.New("dados inválidos")
	ErrTipoInvalido = fmt.Errorf("%w: tipo de documento inválido", ErrValidacao)
)

const (
	TipoGerado  = "gerado"
	TipoExterno = "externo"
	TipoAnexo   = "anexo"
)

var validTipos = map[string]struct{}{
	TipoGerado:  {},
	TipoExterno: {},
	TipoAnexo:   {},
}

// Documento representa um arquivo anexado a um processo.
type Documento struct {
	ID             int64     `json:"id"`
	ProcessoID     int64     `json:"processo_id"`
	TipoDocumento  string    `json:"tipo_documento"`
	Nome           string    `json:"nome"`
	Descricao      *string   `json:"descricao,omitempty"`
	ArquivoKey     string    `json:"-"`
	ArquivoNome    string    `json:"arquivo_nome"`
	ArquivoTamanho int64     `json:"arquivo_tamanho"`
	ArquivoTipo    string    `json:"arquivo_tipo"`
	CriadoPor      int64     `json:"criado_por"`
	CriadoEm       time.Time `json:"criado_em"`
}

// UploadInput encapsula o envio de um arquivo para um processo.
type UploadInput struct {
	ProcessoID    int64
	Nome          string
	TipoDocumento string
	Descricao     string
	ArquivoNome   string
	ContentType   string
	Conteudo      []byte
}

// AtualizarInput altera metadados do documento; campo nil mantém o valor atual.
type AtualizarInput struct {
	Nome          *string
	TipoDocumento *string
	Descricao     *string
}

// NormalizeTipo padroniza o tipo com default anexo.
func NormalizeTipo(tipo string) string {
	tipo = strings.ToLower(strings.TrimSpace(tipo))
	if tipo == "" {
		return TipoAnexo
	}
	return tipo
}

// IsValidTipo verifica o tipo de documento.
func IsValidTipo(tipo string) bool {
	_, ok := validTipos[tipo]
	return ok
}
