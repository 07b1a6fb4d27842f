// Package repository define las entidades persistidas y los contratos de almacenamiento.
//
// Las implementaciones viven en internal/store/adapters (pg, sqlite, memory).
//
//	┌──────────────────────────────────────────────┐
//	│        services (auth, tenant, invitation)   │
//	└──────────────────────────────────────────────┘
//	                      │
//	                      ▼
//	┌──────────────────────────────────────────────┐
//	│   repository.Store (Users/Tenants/Invites)   │
//	└──────────────────────────────────────────────┘
//	          │             │              │
//	          ▼             ▼              ▼
//	     ┌────────┐    ┌─────────┐    ┌─────────┐
//	     │   pg   │    │ sqlite  │    │ memory  │
//	     └────────┘    └─────────┘    └─────────┘
//
// Convenciones:
//   - Context siempre es el primer parámetro.
//   - Las búsquedas de usuarios reciben un Scope: tenant concreto o plataforma.
//   - Emails y usernames se guardan y se buscan en minúsculas.
//   - Violaciones de unicidad se reportan como ErrConflict.
package repository
