package auth

import (
	"github.com/alexedwards/argon2id"
)

// Parâmetros Argon2id para hash de senha de usuários internos. Ficam
// embutidos no próprio hash, então podem evoluir sem migração de dados.
var argonParams = &argon2id.Params{
	Memory:      64 * 1024,
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera o hash Argon2id da senha.
func Hash(senha string) (string, error) {
	return argon2id.CreateHash(senha, argonParams)
}

// Verify compara a senha com um hash Argon2id existente.
func Verify(senha, hash string) (bool, error) {
	return argon2id.ComparePasswordAndHash(senha, hash)
}
