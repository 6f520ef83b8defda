// Package confirm asks the user to approve an action before it runs.
package confirm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrCancelled is returned by flows when the user declines a confirmation.
var ErrCancelled = errors.New("action cancelled")

// Prompt is the content of a confirmation dialog.
type Prompt struct {
	Title        string `json:"title"`
	Body         string `json:"body"`
	ConfirmLabel string `json:"confirm_label"`
	CancelLabel  string `json:"cancel_label"`
	// Destructive marks prompts whose action cannot be undone.
	Destructive bool `json:"destructive,omitempty"`
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt Prompt) (bool, error)
}

// Static answers every prompt with the same value. It records the last
// prompt so a caller that got a refusal can show what was asked.
type Static struct {
	Answer bool
	Last   *Prompt
}

func (s *Static) Confirm(_ context.Context, prompt Prompt) (bool, error) {
	p := prompt
	s.Last = &p
	return s.Answer, nil
}

// Terminal prints the prompt to Out and reads a yes/no answer from In.
// Anything other than y or yes, including EOF, is a refusal.
//
// Confirm returns as soon as its context is done, but the read from In
// stays blocked until In yields a line or fails. The answer is then
// discarded, so a cancelled Terminal should not share In with another
// reader. The CLI asks once per process, which makes this harmless there.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{In: in, Out: out}
}

func (t *Terminal) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	label := prompt.ConfirmLabel
	if label == "" {
		label = "Confirm"
	}
	fmt.Fprintf(t.Out, "\n%s\n\n%s\n\n%s? [y/N]: ", prompt.Title, prompt.Body, label)

	answer := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(t.In).ReadString('\n')
		answer <- line
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case line := <-answer:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true, nil
		default:
			return false, nil
		}
	}
}

type requestKey struct{}

// Request carries a caller's answer through a context. Prompt is set to
// the question that was asked, if any.
type Request struct {
	Answer bool
	Prompt *Prompt
}

// WithRequest returns a context answering prompts with r.Answer.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// FromContext answers with the Request stored in the context. Without
// one every prompt is refused.
type FromContext struct{}

func (FromContext) Confirm(ctx context.Context, prompt Prompt) (bool, error) {
	r, ok := ctx.Value(requestKey{}).(*Request)
	if !ok {
		return false, nil
	}
	p := prompt
	r.Prompt = &p
	return r.Answer, nil
}
