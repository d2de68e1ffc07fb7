package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrObjectNotFound indica chave inexistente no storage.
var ErrObjectNotFound = errors.New("storage: objeto não encontrado")

// LocalStorage persiste documentos em um diretório do sistema de arquivos.
type LocalStorage struct {
	baseDir string
}

// NewLocalStorage cria o diretório base se necessário.
func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("storage: diretório base obrigatório")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: criar diretório base: %w", err)
	}
	return &LocalStorage{baseDir: baseDir}, nil
}

// Save grava o conteúdo sob a chave, criando subdiretórios conforme preciso.
func (l *LocalStorage) Save(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: criar diretório: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: gravar arquivo: %w", err)
	}
	return nil
}

// Load lê o conteúdo da chave.
func (l *LocalStorage) Load(ctx context.Context, key string) ([]byte, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("storage: ler arquivo: %w", err)
	}
	return data, nil
}

// Delete remove o arquivo da chave; chave inexistente é um no-op.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: remover arquivo: %w", err)
	}
	return nil
}

// resolve impede que a chave escape do diretório base.
func (l *LocalStorage) resolve(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("storage: chave do objeto obrigatória")
	}
	path := filepath.Join(l.baseDir, filepath.FromSlash(key))
	base, err := filepath.Abs(l.baseDir)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, base+string(os.PathSeparator)) {
		return "", errors.New("storage: chave inválida")
	}
	return path, nil
}
