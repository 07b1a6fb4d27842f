// Package email envía los correos transaccionales (verificación, reset,
// bienvenida, invitaciones) con el branding del tenant.
package email

import (
	"context"
	"errors"
)

// ErrDelivery envuelve cualquier fallo de entrega del transporte.
var ErrDelivery = errors.New("email: delivery failed")

// Message es un correo ya compuesto.
type Message struct {
	FromName    string
	FromAddress string
	To          string
	Subject     string
	Text        string
	HTML        string
}

// Sender entrega un Message. Las implementaciones envuelven sus errores con ErrDelivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}
