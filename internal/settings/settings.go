// Package settings implements the key settings page: renaming a key,
// showing and regenerating its passkey, and creating new keys.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rss3-network/gateway-dashboard/internal/confirm"
	"github.com/rss3-network/gateway-dashboard/internal/form"
	"github.com/rss3-network/gateway-dashboard/internal/models"
	"github.com/rss3-network/gateway-dashboard/pkg/logger"
)

// ErrBusy is returned when a submit is attempted while the previous one
// is still running.
var ErrBusy = errors.New("a request is already in progress")

// RegeneratePrompt is shown before a key's passkey is replaced.
var RegeneratePrompt = confirm.Prompt{
	Title:        "Please confirm your action",
	Body:         "Once you regenerate your app key, the old key will be invalidated. Please make sure you are certain before proceeding.",
	ConfirmLabel: "Regenerate",
	CancelLabel:  "Cancel",
	Destructive:  true,
}

// NameForm edits the name of a key.
type NameForm struct {
	logger  *logger.Logger
	gateway models.GatewayService
	id      int64
	form    *form.Form[form.NameInput]

	mu      sync.Mutex
	pending bool
}

// NewNameForm starts with name, which may be empty while the key is loading.
func NewNameForm(logger *logger.Logger, gateway models.GatewayService, id int64, name string) *NameForm {
	return &NameForm{
		logger:  logger.Named("settings"),
		gateway: gateway,
		id:      id,
		form:    form.New(form.NameInput{Name: name}, form.DefaultMessages),
	}
}

// Sync fills the field with the key's name once it is known. A value the
// user already typed is kept.
func (f *NameForm) Sync(name string) {
	if name == "" {
		return
	}
	f.form.Update(func(v *form.NameInput) {
		if v.Name == "" {
			v.Name = name
		}
	})
}

func (f *NameForm) SetName(name string) {
	f.form.Update(func(v *form.NameInput) { v.Name = name })
}

func (f *NameForm) Name() string {
	return f.form.Values().Name
}

func (f *NameForm) Errors() map[string]string {
	return f.form.Errors()
}

// Pending reports whether a rename is in flight.
func (f *NameForm) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Submit validates the name and sends it to the gateway. The field keeps
// the submitted value whatever the outcome.
func (f *NameForm) Submit(ctx context.Context) error {
	if !f.begin() {
		return ErrBusy
	}
	defer f.end()

	return f.form.Submit(func(v form.NameInput) error {
		if err := f.gateway.UpdateKey(ctx, f.id, v.Name); err != nil {
			f.logger.Error("Failed to rename key", "id", f.id, "error", err)
			return err
		}
		f.logger.Info("Key renamed", "id", f.id, "name", v.Name)
		return nil
	})
}

func (f *NameForm) begin() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pending {
		return false
	}
	f.pending = true
	return true
}

func (f *NameForm) end() {
	f.mu.Lock()
	f.pending = false
	f.mu.Unlock()
}

// KeyForm shows a key's passkey and regenerates it.
type KeyForm struct {
	logger      *logger.Logger
	gateway     models.GatewayService
	confirmer   confirm.Confirmer
	notificator models.NotificationService
	id          int64

	mu      sync.Mutex
	passkey string
	pending bool
}

func NewKeyForm(logger *logger.Logger, gateway models.GatewayService, confirmer confirm.Confirmer, notificator models.NotificationService, id int64, passkey string) *KeyForm {
	return &KeyForm{
		logger:      logger.Named("settings"),
		gateway:     gateway,
		confirmer:   confirmer,
		notificator: notificator,
		id:          id,
		passkey:     passkey,
	}
}

// Reveal returns the passkey in clear text.
func (f *KeyForm) Reveal() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.passkey
}

// Masked returns the passkey with every character hidden.
func (f *KeyForm) Masked() string {
	return Mask(f.Reveal())
}

// Copy writes the passkey to w, typically the clipboard or stdout.
func (f *KeyForm) Copy(w io.Writer) error {
	_, err := io.WriteString(w, f.Reveal())
	return err
}

func (f *KeyForm) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pending
}

// Regenerate asks for confirmation and then has the gateway issue a new
// passkey, which replaces the one held by the form. A declined
// confirmation returns confirm.ErrCancelled and the gateway is not called.
func (f *KeyForm) Regenerate(ctx context.Context) (*models.Key, error) {
	f.mu.Lock()
	if f.pending {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.pending = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.pending = false
		f.mu.Unlock()
	}()

	ok, err := f.confirmer.Confirm(ctx, RegeneratePrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm key regeneration: %w", err)
	}
	if !ok {
		return nil, confirm.ErrCancelled
	}

	key, err := f.gateway.ReassignKeySecret(ctx, f.id)
	if err != nil {
		f.logger.Error("Failed to regenerate key", "id", f.id, "error", err)
		f.notificator.SendNotification(&models.Notification{
			Kind:    models.NotificationFailed,
			Title:   "Key regeneration failed",
			Message: err.Error(),
		})
		return nil, err
	}

	f.mu.Lock()
	f.passkey = key.Passkey
	f.mu.Unlock()

	f.logger.Info("Key regenerated", "id", f.id)
	f.notificator.SendNotification(&models.Notification{
		Kind:    models.NotificationKeyRegenerated,
		Title:   "Key regenerated",
		Message: fmt.Sprintf("The key %q has a new passkey. The old one no longer works.", key.Name),
	})
	return key, nil
}

// Mask hides every character of secret.
func Mask(secret string) string {
	return strings.Repeat("•", len([]rune(secret)))
}

// CreateKey creates a key. A blank name lets the gateway pick one.
func CreateKey(ctx context.Context, gateway models.GatewayService, name string) (*models.Key, error) {
	return gateway.CreateKey(ctx, models.CreateKeyInput{Name: strings.TrimSpace(name)})
}
