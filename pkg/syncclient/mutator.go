package syncclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/hakikicode/SmartDesign/models"
	"github.com/hakikicode/SmartDesign/types"

	"github.com/google/uuid"
)

// Mutator produces local updates. Each one shows up in the loop's view immediately as a
// placeholder and is forwarded to the server; the next tick that sees the server copy
// (matched by correlation id) replaces the placeholder.
type Mutator struct {
	loop      *Loop
	forwarder Forwarder
	newID     func() string
}

// NewMutator returns a mutator feeding loop. A nil forwarder only inserts placeholders,
// for setups where another producer delivers the content to the server.
func NewMutator(loop *Loop, f Forwarder) *Mutator {
	return &Mutator{loop: loop, forwarder: f, newID: uuid.NewString}
}

func (m *Mutator) AddComment(ctx context.Context, text string) (models.Update, error) {
	return m.submit(ctx, text, models.KindComment)
}

func (m *Mutator) AssignTask(ctx context.Context, text string) (models.Update, error) {
	return m.submit(ctx, text, models.KindTask)
}

// submit returns the placeholder even when forwarding fails; it stays in the view until a
// matching server record arrives, which may be never.
func (m *Mutator) submit(ctx context.Context, text string, kind models.Kind) (models.Update, error) {
	if strings.TrimSpace(text) == "" {
		return models.Update{}, ErrEmptyText
	}
	correlationID := m.newID()
	placeholder := m.loop.addPlaceholder(text, kind, correlationID)
	if m.forwarder == nil {
		return placeholder, nil
	}

	msg := text
	_, err := m.forwarder.Ingest(ctx, types.IngestRequest{
		Message:       &msg,
		Kind:          string(kind),
		CorrelationID: correlationID,
	})
	if err != nil {
		return placeholder, fmt.Errorf("forward %s: %w", kind, err)
	}
	m.loop.Poke()
	return placeholder, nil
}
