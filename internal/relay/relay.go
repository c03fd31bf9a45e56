// Package relay contains the completion clients that perform the actual model
// call once the gate has admitted a request.
package relay

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"lina-server/internal/domain"
)

// MaxMessageLen bounds the user message forwarded to any provider.
const MaxMessageLen = 4000

// Request is one admitted chat turn.
type Request struct {
	System  string
	Message string
	Topic   string
}

// Completer performs a single completion call.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// TruncateMessage caps msg at MaxMessageLen characters.
func TruncateMessage(msg string) string {
	if len(msg) <= MaxMessageLen {
		return msg
	}
	return msg[:MaxMessageLen]
}

// StaticCompleter is the keyless development provider. It echoes a canned
// acknowledgement instead of calling a hosted model.
type StaticCompleter struct{}

func NewStaticCompleter() *StaticCompleter {
	return &StaticCompleter{}
}

func (s *StaticCompleter) Complete(ctx context.Context, req Request) (string, error) {
	topic := strings.TrimSpace(req.Topic)
	if topic == "" {
		topic = domain.DefaultTopic
	}
	c := cases.Title(language.Und)
	return fmt.Sprintf("[%s] LINA is running without a model provider. You said: %s",
		c.String(topic), strings.TrimSpace(req.Message)), nil
}

var _ Completer = (*StaticCompleter)(nil)
