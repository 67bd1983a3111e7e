package channel

import (
	"context"
	"sync"

	"github.com/ordercore/notification-orchestrator/internal/domain"
)

// Sender is the outbound delivery port for a single channel.
type Sender interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// SenderRegistry maps delivery channels to sender implementations. The
// orchestrator selects by declared channel type and never inspects the
// concrete sender.
type SenderRegistry struct {
	mu      sync.RWMutex
	senders map[domain.Channel]Sender
}

func NewSenderRegistry() *SenderRegistry {
	return &SenderRegistry{senders: make(map[domain.Channel]Sender)}
}

func (r *SenderRegistry) Register(channel domain.Channel, sender Sender) {
	if r == nil || sender == nil || !channel.IsValid() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = sender
}

func (r *SenderRegistry) Get(channel domain.Channel) (Sender, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sender, ok := r.senders[channel]
	return sender, ok
}
