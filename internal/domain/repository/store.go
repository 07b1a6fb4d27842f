package repository

import "context"

// Store agrupa los repositorios de un backend de almacenamiento.
type Store interface {
	Users() UserRepository
	Tenants() TenantRepository
	Invitations() InvitationRepository

	// Driver retorna el nombre del adapter ("postgres", "sqlite", "memory").
	Driver() string
	Ping(ctx context.Context) error
	Close() error
}
