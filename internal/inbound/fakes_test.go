package inbound

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/jarrod-lowe/inbound-email-service/internal/account"
	"github.com/jarrod-lowe/inbound-email-service/internal/message"
	"github.com/jarrod-lowe/inbound-email-service/internal/storage"
)

var errBackend = errors.New("backend unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeBackend implements account.Backend for testing.
type fakeBackend struct {
	mu       sync.Mutex
	accounts map[string]*account.Account
	errFor   map[string]error
	calls    []string
}

func (f *fakeBackend) GetAccount(ctx context.Context, accountID string) (*account.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, accountID)
	if err := f.errFor[accountID]; err != nil {
		return nil, err
	}
	acct, ok := f.accounts[accountID]
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return acct, nil
}

func (f *fakeBackend) callCount(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == accountID {
			n++
		}
	}
	return n
}

type copyCall struct {
	from, to string
}

// memStore implements ObjectStore for testing.
type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	metadata map[string]map[string]string
	puts     []string
	copies   []copyCall
	deletes  []string
	getErr   error
	putErr   map[string]error
	copyErr  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		objects:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
		putErr:   make(map[string]error),
		copyErr:  make(map[string]error),
	}
}

func (m *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return data, nil
}

func (m *memStore) Put(ctx context.Context, key string, body []byte, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts = append(m.puts, key)
	if err := m.putErr[key]; err != nil {
		return err
	}
	m.objects[key] = body
	m.metadata[key] = metadata
	return nil
}

func (m *memStore) Copy(ctx context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.copies = append(m.copies, copyCall{from, to})
	if err := m.copyErr[to]; err != nil {
		return err
	}
	data, ok := m.objects[from]
	if !ok {
		return storage.ErrObjectNotFound
	}
	m.objects[to] = data
	return nil
}

func (m *memStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes = append(m.deletes, key)
	delete(m.objects, key)
	return nil
}

// copiesTo returns the sorted destinations of every copy.
func (m *memStore) copiesTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.copies))
	for i, c := range m.copies {
		out[i] = c.to
	}
	sort.Strings(out)
	return out
}

// fakeRegistrar implements EmailRegistrar for testing.
type fakeRegistrar struct {
	mu          sync.Mutex
	registered  []string
	bounced     []string
	registerErr map[string]error
}

func (f *fakeRegistrar) RegisterReceivedEmail(ctx context.Context, recipient, messageID string, parsed *message.ParsedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registered = append(f.registered, recipient)
	return f.registerErr[recipient]
}

func (f *fakeRegistrar) BounceReceivedEmail(ctx context.Context, recipient, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bounced = append(f.bounced, recipient)
	return nil
}

func (f *fakeRegistrar) sortedRegistered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.registered...)
	sort.Strings(out)
	return out
}

type sentEmail struct {
	target      string
	email       message.Email
	attachments []message.Attachment
}

// fakeSender implements OutboundSender for testing.
type fakeSender struct {
	mu     sync.Mutex
	sent   []sentEmail
	errFor map[string]error
}

func (f *fakeSender) SendEmail(ctx context.Context, target string, email message.Email, attachments []message.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentEmail{target, email, attachments})
	return f.errFor[target]
}

// sequentialTokens returns a token generator yielding tok-1, tok-2, ...
func sequentialTokens() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return "tok-" + strconv.Itoa(n)
	}
}
