package payment

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Mock is an in-process Gateway used when no processor key is configured.
// Intents are never charged; webhook payloads are accepted unsigned.
type Mock struct {
	mu       sync.Mutex
	created  map[string]IntentRequest
	canceled map[string]bool
	logger   *log.Logger
}

func NewMock(logger *log.Logger) *Mock {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Mock{created: map[string]IntentRequest{}, canceled: map[string]bool{}, logger: logger}
}

func (m *Mock) CreateIntent(_ context.Context, req IntentRequest) (Intent, error) {
	if req.AmountCents <= 0 {
		return Intent{}, ErrInvalidAmount
	}
	id := "pi_mock_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	m.mu.Lock()
	m.created[id] = req
	m.mu.Unlock()
	m.logger.Printf("mock payment: created intent id=%s amount=%d", id, req.AmountCents)
	return Intent{ID: id, ClientSecret: id + "_secret_" + uuid.NewString()[:8]}, nil
}

func (m *Mock) CancelIntent(_ context.Context, id string) error {
	m.mu.Lock()
	m.canceled[id] = true
	m.mu.Unlock()
	m.logger.Printf("mock payment: canceled intent id=%s", id)
	return nil
}

func (m *Mock) ParseEvent(payload []byte, _ string) (Event, error) {
	return decodeRawEvent(payload)
}

// Intent reports the request an intent was created with.
func (m *Mock) Intent(id string) (IntentRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.created[id]
	return req, ok
}

func (m *Mock) Canceled(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canceled[id]
}
