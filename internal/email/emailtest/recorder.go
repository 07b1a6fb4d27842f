// Package emailtest provee un email.Sender en memoria para tests.
package emailtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/kobecorporation/kbsaas/internal/email"
)

// Recorder guarda los mensajes enviados. Con Err != nil falla cada envío.
type Recorder struct {
	mu   sync.Mutex
	msgs []email.Message
	Err  error
}

func (r *Recorder) Send(_ context.Context, msg email.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return fmt.Errorf("%w: %v", email.ErrDelivery, r.Err)
	}
	r.msgs = append(r.msgs, msg)
	return nil
}

// SetErr cambia el error de envío de forma segura.
func (r *Recorder) SetErr(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

func (r *Recorder) Messages() []email.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]email.Message(nil), r.msgs...)
}

// Last retorna el último mensaje enviado y false si no hubo ninguno.
func (r *Recorder) Last() (email.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.msgs) == 0 {
		return email.Message{}, false
	}
	return r.msgs[len(r.msgs)-1], true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
