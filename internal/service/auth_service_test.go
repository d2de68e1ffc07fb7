package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cbbasket/processos/internal/auth"
	"github.com/cbbasket/processos/internal/repo"
)

type stubAuthRepo struct {
	usuarios map[int64]repo.Usuario
	touched  int
}

func (s *stubAuthRepo) GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error) {
	for _, u := range s.usuarios {
		if u.Email == email {
			return u, nil
		}
	}
	return repo.Usuario{}, repo.ErrNotFound
}

func (s *stubAuthRepo) GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error) {
	u, ok := s.usuarios[id]
	if !ok {
		return repo.Usuario{}, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubAuthRepo) TouchUltimoAcesso(ctx context.Context, id int64) error {
	s.touched++
	return nil
}

type stubRedis struct {
	store map[string]string
}

func newStubRedis() *stubRedis {
	return &stubRedis{store: map[string]string{}}
}

func (s *stubRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	s.store[key] = value.(string)
	return redis.NewStatusResult("OK", nil)
}

func (s *stubRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	val, ok := s.store[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(val, nil)
}

func (s *stubRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := s.store[key]; ok {
			delete(s.store, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func newTestService(t *testing.T) (*AuthService, *stubAuthRepo, *stubRedis) {
	t.Helper()

	hash, err := auth.Hash("senha-correta")
	if err != nil {
		t.Fatalf("hash falhou: %v", err)
	}

	setorID := int64(4)
	cargo := "analista"
	repoStub := &stubAuthRepo{usuarios: map[int64]repo.Usuario{
		1: {ID: 1, Nome: "Ana", Email: "ana@cbb.com.br", SenhaHash: hash, SetorID: &setorID, Cargo: &cargo, Ativo: true},
	}}
	redisStub := newStubRedis()

	jwtMgr := auth.NewJWTManager("segredo-de-teste-com-32-caracteres!!", time.Minute)
	svc := NewAuthService(repoStub, redisStub, jwtMgr, time.Hour)
	return svc, repoStub, redisStub
}

func TestLoginCredenciaisInvalidas(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Login(context.Background(), "nao-existe@cbb.com.br", "qualquer"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, obteve %v", err)
	}
	if _, err := svc.Login(context.Background(), "ana@cbb.com.br", "senha-errada"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("esperava ErrInvalidCredentials, obteve %v", err)
	}
}

func TestLoginContaDesativada(t *testing.T) {
	svc, repoStub, _ := newTestService(t)

	user := repoStub.usuarios[1]
	user.Ativo = false
	repoStub.usuarios[1] = user

	if _, err := svc.Login(context.Background(), "ana@cbb.com.br", "senha-correta"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("esperava ErrAccountDisabled, obteve %v", err)
	}
}

func TestLoginEmiteTokensEAbreSessao(t *testing.T) {
	svc, repoStub, redisStub := newTestService(t)

	result, err := svc.Login(context.Background(), "Ana@CBB.com.br", "senha-correta")
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Fatal("tokens não foram emitidos")
	}
	if result.Usuario.ID != 1 {
		t.Fatalf("usuário errado no resultado: %d", result.Usuario.ID)
	}
	if repoStub.touched != 1 {
		t.Fatal("último acesso deveria ser registrado")
	}

	key := auth.SessionKey(auth.HashRefreshToken(result.RefreshToken))
	if redisStub.store[key] != "1" {
		t.Fatal("sessão de refresh não foi gravada")
	}

	claims, err := svc.JWT().ParseAndValidate(result.AccessToken)
	if err != nil {
		t.Fatalf("access token inválido: %v", err)
	}
	if claims.Subject != "1" || claims.SetorID != 4 || claims.Cargo != "analista" {
		t.Fatalf("claims inesperadas: %+v", claims)
	}
}

func TestRefreshRotacionaSessao(t *testing.T) {
	svc, _, _ := newTestService(t)

	login, err := svc.Login(context.Background(), "ana@cbb.com.br", "senha-correta")
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh falhou: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("refresh deveria emitir token novo")
	}

	// O token antigo foi revogado na rotação.
	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("token antigo deveria ser inválido, obteve %v", err)
	}

	// O novo continua funcionando.
	if _, err := svc.Refresh(context.Background(), refreshed.RefreshToken); err != nil {
		t.Fatalf("novo refresh token deveria funcionar: %v", err)
	}
}

func TestRefreshInvalido(t *testing.T) {
	svc, _, _ := newTestService(t)

	if _, err := svc.Refresh(context.Background(), ""); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("esperava ErrRefreshInvalid, obteve %v", err)
	}
	if _, err := svc.Refresh(context.Background(), "token-forjado"); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("esperava ErrRefreshInvalid, obteve %v", err)
	}
}

func TestLogoutIdempotente(t *testing.T) {
	svc, _, redisStub := newTestService(t)

	login, err := svc.Login(context.Background(), "ana@cbb.com.br", "senha-correta")
	if err != nil {
		t.Fatalf("login falhou: %v", err)
	}

	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout falhou: %v", err)
	}
	if len(redisStub.store) != 0 {
		t.Fatal("sessão deveria ser removida no logout")
	}

	// Repetir o logout (ou com token vazio) não é erro.
	if err := svc.Logout(context.Background(), login.RefreshToken); err != nil {
		t.Fatalf("logout repetido deveria ser no-op: %v", err)
	}
	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("logout vazio deveria ser no-op: %v", err)
	}

	if _, err := svc.Refresh(context.Background(), login.RefreshToken); !errors.Is(err, ErrRefreshInvalid) {
		t.Fatalf("refresh após logout deveria falhar, obteve %v", err)
	}
}
