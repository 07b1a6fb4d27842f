// Package drivers importa todos los adapters para auto-registro.
// Importar este paquete en main.go para habilitar todos los drivers.
package drivers

import (
	_ "github.com/kobecorporation/kbsaas/internal/store/memory"
	_ "github.com/kobecorporation/kbsaas/internal/store/pg"
	_ "github.com/kobecorporation/kbsaas/internal/store/sqlite"
)
