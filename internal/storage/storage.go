package storage

import "context"

// Storage guarda e recupera o conteúdo binário dos documentos.
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Load(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
