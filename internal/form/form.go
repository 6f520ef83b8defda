// Package form holds transient form state: initial values, current values
// and the errors produced by schema validation.
package form

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

// ValidationError maps a field name to the message rendered next to it.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Messages turns validator tags into user facing messages.
type Messages func(fe validator.FieldError) string

// Form is the state of a single form with values of type T.
type Form[T any] struct {
	mu       sync.Mutex
	validate *validator.Validate
	messages Messages
	initial  T
	values   T
	errors   map[string]string
}

// New creates a form starting from initial. messages may be nil, in which
// case the raw validator tag is used as the message.
func New[T any](initial T, messages Messages) *Form[T] {
	return &Form[T]{
		validate: Validator(),
		messages: messages,
		initial:  initial,
		values:   initial,
		errors:   map[string]string{},
	}
}

// Values returns a copy of the current values.
func (f *Form[T]) Values() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

// SetValues replaces the current values and clears stale errors.
func (f *Form[T]) SetValues(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = v
	f.errors = map[string]string{}
}

// Update applies fn to the current values.
func (f *Form[T]) Update(fn func(v *T)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.values)
	f.errors = map[string]string{}
}

// Errors returns the errors of the last validation, keyed by field name.
func (f *Form[T]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyErrorsLocked()
}

// Equaler is implemented by value types that need a semantic comparison
// for the dirty check, such as structs holding decimals.
type Equaler[T any] interface {
	Equal(other T) bool
}

// IsDirty reports whether the values differ from the initial values.
func (f *Form[T]) IsDirty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if eq, ok := any(f.values).(Equaler[T]); ok {
		return !eq.Equal(f.initial)
	}
	return !reflect.DeepEqual(f.initial, f.values)
}

// Reset restores the initial values and clears errors.
func (f *Form[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = f.initial
	f.errors = map[string]string{}
}

// Validate checks the current values. It returns a *ValidationError when
// any field is invalid.
func (f *Form[T]) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

func (f *Form[T]) validateLocked() error {
	f.errors = map[string]string{}
	err := f.validate.Struct(f.values)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("failed to validate form: %w", err)
	}
	for _, fe := range fieldErrs {
		if _, seen := f.errors[fe.Field()]; seen {
			continue
		}
		msg := fe.Tag()
		if f.messages != nil {
			msg = f.messages(fe)
		}
		f.errors[fe.Field()] = msg
	}
	return &ValidationError{Fields: f.copyErrorsLocked()}
}

func (f *Form[T]) copyErrorsLocked() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Submit validates the values and calls fn with them only when valid.
func (f *Form[T]) Submit(fn func(values T) error) error {
	f.mu.Lock()
	if err := f.validateLocked(); err != nil {
		f.mu.Unlock()
		return err
	}
	values := f.values
	f.mu.Unlock()

	return fn(values)
}
