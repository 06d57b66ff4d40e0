package ports

import "context"

type SecretSource interface {
	GetSecret(ctx context.Context, name string) (string, error)
}
