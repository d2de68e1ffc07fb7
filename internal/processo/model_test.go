package processo

import (
	"errors"
	"testing"
)

func TestProximoStatus(t *testing.T) {
	cases := []struct {
		nome    string
		atual   string
		acao    string
		proximo string
		wantErr error
	}{
		{"aberto tramita", StatusAberto, AcaoTramitar, StatusEmTramite, nil},
		{"aberto nao conclui", StatusAberto, AcaoConcluir, "", ErrTransicaoInvalida},
		{"aberto nao arquiva", StatusAberto, AcaoArquivar, "", ErrTransicaoInvalida},
		{"aberto nao reabre", StatusAberto, AcaoReabrir, "", ErrTransicaoInvalida},

		{"em_tramite tramita de novo", StatusEmTramite, AcaoTramitar, StatusEmTramite, nil},
		{"em_tramite conclui", StatusEmTramite, AcaoConcluir, StatusConcluido, nil},
		{"em_tramite nao arquiva", StatusEmTramite, AcaoArquivar, "", ErrTransicaoInvalida},
		{"em_tramite nao reabre", StatusEmTramite, AcaoReabrir, "", ErrTransicaoInvalida},

		{"concluido arquiva", StatusConcluido, AcaoArquivar, StatusArquivado, nil},
		{"concluido reabre", StatusConcluido, AcaoReabrir, StatusAberto, nil},
		{"concluido nao tramita", StatusConcluido, AcaoTramitar, "", ErrTransicaoInvalida},
		{"concluido nao conclui", StatusConcluido, AcaoConcluir, "", ErrTransicaoInvalida},

		{"arquivado reabre", StatusArquivado, AcaoReabrir, StatusAberto, nil},
		{"arquivado nao tramita", StatusArquivado, AcaoTramitar, "", ErrTransicaoInvalida},
		{"arquivado nao conclui", StatusArquivado, AcaoConcluir, "", ErrTransicaoInvalida},
		{"arquivado nao arquiva", StatusArquivado, AcaoArquivar, "", ErrTransicaoInvalida},

		{"status desconhecido", "pendente", AcaoTramitar, "", ErrStatusInvalido},
	}

	for _, tc := range cases {
		t.Run(tc.nome, func(t *testing.T) {
			proximo, err := ProximoStatus(tc.atual, tc.acao)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("esperava %v, obteve %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("erro inesperado: %v", err)
			}
			if proximo != tc.proximo {
				t.Fatalf("esperava %q, obteve %q", tc.proximo, proximo)
			}
		})
	}
}

func TestNormalizePrioridade(t *testing.T) {
	if got := NormalizePrioridade(""); got != PrioridadeNormal {
		t.Fatalf("default deveria ser normal, obteve %q", got)
	}
	if got := NormalizePrioridade("  URGENTE "); got != PrioridadeUrgente {
		t.Fatalf("esperava urgente, obteve %q", got)
	}
}

func TestNormalizeTipoTramitacao(t *testing.T) {
	if got := NormalizeTipoTramitacao(""); got != TipoDespacho {
		t.Fatalf("default deveria ser despacho, obteve %q", got)
	}
	if got := NormalizeTipoTramitacao(" Aprovacao "); got != TipoAprovacao {
		t.Fatalf("esperava aprovacao, obteve %q", got)
	}
	if IsValidTipoTramitacao("encaminhamento") {
		t.Fatal("encaminhamento não deveria ser tipo válido")
	}
}

func TestPendenteParaSetor(t *testing.T) {
	tram := Tramitacao{
		TipoTramitacao:  TipoAprovacao,
		StatusAprovacao: AprovacaoPendente,
		SetorDestinoID:  7,
	}

	if !tram.PendenteParaSetor(7) {
		t.Fatal("tramitação pendente deveria aguardar decisão do setor 7")
	}
	if tram.PendenteParaSetor(8) {
		t.Fatal("setor diferente não deveria ter decisão pendente")
	}

	tram.StatusAprovacao = AprovacaoAprovado
	if tram.PendenteParaSetor(7) {
		t.Fatal("tramitação decidida não deveria continuar pendente")
	}

	despacho := Tramitacao{TipoTramitacao: TipoDespacho, StatusAprovacao: AprovacaoPendente, SetorDestinoID: 7}
	if despacho.PendenteParaSetor(7) {
		t.Fatal("despacho não exige decisão")
	}
}
