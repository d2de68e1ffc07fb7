package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/cbbasket/processos/internal/auth"
	"github.com/cbbasket/processos/internal/repo"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type authRepository interface {
	GetUsuarioByEmail(ctx context.Context, email string) (repo.Usuario, error)
	GetUsuarioByID(ctx context.Context, id int64) (repo.Usuario, error)
	TouchUltimoAcesso(ctx context.Context, id int64) error
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	repo       authRepository
	redis      redisCommander
	jwt        *auth.JWTManager
	refreshTTL time.Duration
}

// NewAuthService cria novo serviço.
func NewAuthService(r authRepository, redisClient redisCommander, jwtMgr *auth.JWTManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{repo: r, redis: redisClient, jwt: jwtMgr, refreshTTL: refreshTTL}
}

// JWT expõe gerenciador de JWT (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa retorno padrão de autenticações.
type LoginResult struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	Usuario      repo.Usuario `json:"usuario"`
}

// Login autentica por e-mail e senha e abre uma sessão de refresh.
func (s *AuthService) Login(ctx context.Context, email, senha string) (*LoginResult, error) {
	user, err := s.repo.GetUsuarioByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		log.Warn().Msg("login: senha inválida")
		return nil, ErrInvalidCredentials
	}

	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.TouchUltimoAcesso(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("usuario_id", user.ID).Msg("login: falha ao registrar último acesso")
	}

	return result, nil
}

// Refresh troca refresh token por um novo par de tokens (rotação).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)
	key := auth.SessionKey(hash)

	subject, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}

	usuarioID, err := strconv.ParseInt(subject, 10, 64)
	if err != nil {
		return nil, ErrRefreshInvalid
	}

	user, err := s.repo.GetUsuarioByID(ctx, usuarioID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}
	if !user.Ativo {
		return nil, ErrAccountDisabled
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	// Revoga a sessão anterior após a nova estar gravada.
	if err := s.redis.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga a sessão do refresh token. Repetir o logout é um no-op.
func (s *AuthService) Logout(ctx context.Context, rawToken string) error {
	if rawToken == "" {
		return nil
	}
	hash := auth.HashRefreshToken(rawToken)
	if err := s.redis.Del(ctx, auth.SessionKey(hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

// GetMe devolve o perfil do usuário autenticado.
func (s *AuthService) GetMe(ctx context.Context, usuarioID int64) (repo.Usuario, error) {
	return s.repo.GetUsuarioByID(ctx, usuarioID)
}

func (s *AuthService) issueTokens(ctx context.Context, user repo.Usuario) (*LoginResult, error) {
	var setorID int64
	if user.SetorID != nil {
		setorID = *user.SetorID
	}
	var cargo string
	if user.Cargo != nil {
		cargo = *user.Cargo
	}

	accessToken, _, err := s.jwt.GenerateAccessToken(strconv.FormatInt(user.ID, 10), setorID, cargo)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	key := auth.SessionKey(refreshHash)
	if err := s.redis.Set(ctx, key, strconv.FormatInt(user.ID, 10), s.refreshTTL).Err(); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		Usuario:      user,
	}, nil
}
