package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cbbasket/processos/internal/auth"
	"github.com/cbbasket/processos/internal/db"
	"github.com/cbbasket/processos/internal/repo"
	"github.com/cbbasket/processos/internal/util"
)

// Ferramenta de linha de comando para criar usuários direto no banco,
// útil para o primeiro acesso e para ambientes de homologação.
func main() {
	_ = godotenv.Load()

	nome := flag.String("nome", "", "nome completo do usuário")
	email := flag.String("email", "", "e-mail de login")
	senha := flag.String("senha", "", "senha em texto claro (será hasheada)")
	setorID := flag.Int64("setor", 0, "id do setor (opcional)")
	cargo := flag.String("cargo", "", "cargo do usuário (opcional)")
	flag.Parse()

	if strings.TrimSpace(*nome) == "" || strings.TrimSpace(*email) == "" || *senha == "" {
		fmt.Fprintln(os.Stderr, "uso: criarusuario -nome <nome> -email <email> -senha <senha> [-setor <id>] [-cargo <cargo>]")
		os.Exit(1)
	}

	if err := util.ValidateEmail(*email); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := util.ValidatePassword(*senha); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "DB_DSN obrigatório")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "conexão com o banco falhou: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	hash, err := auth.Hash(*senha)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash de senha falhou: %v\n", err)
		os.Exit(1)
	}

	var setor *int64
	if *setorID > 0 {
		setor = setorID
	}
	var cargoPtr *string
	if v := strings.TrimSpace(*cargo); v != "" {
		cargoPtr = &v
	}

	user, err := repo.New(pool).CriarUsuario(ctx, *nome, *email, hash, setor, cargoPtr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "criação de usuário falhou: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("usuário criado: id=%d email=%s\n", user.ID, user.Email)
}
