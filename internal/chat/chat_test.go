package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestSessionStore_Window(t *testing.T) {
	t.Parallel()

	s := NewSessionStore(4, 10)
	for i := 0; i < 6; i++ {
		s.Append("a", Message{Role: RoleUser, Content: fmt.Sprint(i)})
	}

	h := s.History("a")
	require.Len(t, h, 4)
	assert.Equal(t, "2", h[0].Content)
	assert.Equal(t, "5", h[3].Content)

	// callers get a copy
	h[0].Content = "changed"
	assert.Equal(t, "2", s.History("a")[0].Content)

	assert.Nil(t, s.History("unknown"))
}

func TestSessionStore_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	s := NewSessionStore(4, 2)
	s.Append("a", Message{Role: RoleUser, Content: "a"})
	s.Append("b", Message{Role: RoleUser, Content: "b"})
	_ = s.History("a")
	s.Append("c", Message{Role: RoleUser, Content: "c"})

	assert.NotNil(t, s.History("a"))
	assert.Nil(t, s.History("b"))
	assert.NotNil(t, s.History("c"))

	// appending to an existing session also counts as a use
	s.Append("c", Message{Role: RoleAssistant, Content: "c2"})
	s.Append("d", Message{Role: RoleUser, Content: "d"})
	assert.Nil(t, s.History("a"))
	assert.Len(t, s.History("c"), 2)
}

func TestSessionStore_Concurrent(t *testing.T) {
	t.Parallel()

	s := NewSessionStore(5, 50)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("s%d", i%5)
			for j := 0; j < 20; j++ {
				s.Append(id, Message{Role: RoleUser, Content: "x"})
				_ = s.History(id)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < 5; i++ {
		assert.Len(t, s.History(fmt.Sprintf("s%d", i)), 5)
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		msg  string
		want string
	}{
		{"What is the price of ghee?", fallbackTable[0].reply},
		{"how much for 1kg sambar powder", fallbackTable[0].reply},
		{"Is rasam powder in stock", fallbackTable[0].reply},
		{"When will you deliver to Madurai?", fallbackTable[1].reply},
		{"shipping charges?", fallbackTable[1].reply},
		{"Hi!", fallbackTable[2].reply},
		{"Vanakkam amma", fallbackTable[2].reply},
		{"Do you have murukku?", fallbackTable[3].reply},
		{"what is your phone number", fallbackTable[4].reply},
		{"tell me a joke", genericReply},
		{"", genericReply},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.msg, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Fallback(tt.msg))
		})
	}
}

func catalog() []models.Product {
	return []models.Product{
		{ID: 1, Name: "Sambar Powder", MRP: 150, Price: 120, Stock: 50, PackSizes: datatypes.JSONSlice[string]{"100g", "250g", "1kg"}},
		{ID: 2, Name: "Homemade Ghee", MRP: 500, Price: 450, Stock: 0, PackSizes: datatypes.JSONSlice[string]{"500ml", "1l"}},
		{ID: 3, Name: "Gift Box", Price: 999, Stock: 3},
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	t.Parallel()

	p := BuildSystemPrompt(logging.Discard(), catalog())
	assert.Contains(t, p, "10% bulk discount")
	assert.Contains(t, p, "- Sambar Powder: 100g Rs 120, 250g Rs 270, 1kg Rs 1080 (MRP Rs 150); in stock (50)")
	assert.Contains(t, p, "- Homemade Ghee: 500ml Rs 450, 1l Rs 810 (MRP Rs 500); out of stock")
	assert.Contains(t, p, "- Gift Box: Rs 999; in stock (3)")

	assert.Contains(t, BuildSystemPrompt(nil, nil), "catalog unavailable")
}

func TestClient_Complete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "m", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, RoleSystem, req.Messages[0].Role)
		assert.Equal(t, "hello", req.Messages[1].Content)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" Vanakkam! "}}]}`))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/", "k", "m", time.Second)
	got, err := c.Complete(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "Vanakkam!", got)
}

func TestClient_Complete_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"quota", http.StatusTooManyRequests, `{}`, ErrQuota},
		{"server error", http.StatusInternalServerError, `{}`, ErrCompletion},
		{"no choices", http.StatusOK, `{"choices":[]}`, ErrCompletion},
		{"blank reply", http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`, ErrCompletion},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			_, err := NewClient(srv.URL, "k", "m", time.Second).Complete(context.Background(), "sys", nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

type fakeCompleter struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	system  string
	history []Message
}

func (f *fakeCompleter) Complete(ctx context.Context, system string, history []Message) (string, error) {
	f.mu.Lock()
	f.system = system
	f.history = history
	f.mu.Unlock()

	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

type staticProducts struct {
	products []models.Product
	err      error
}

func (s staticProducts) ListAll(context.Context) ([]models.Product, error) { return s.products, s.err }

func TestService_Reply(t *testing.T) {
	t.Parallel()

	fc := &fakeCompleter{reply: "1kg Sambar Powder is Rs 1080."}
	svc := &Service{Store: NewSessionStore(10, 10), Completer: fc, Products: staticProducts{products: catalog()}}
	ctx := context.Background()

	r, err := svc.Reply(ctx, "sess-1", "  price of 1kg sambar?  ")
	require.NoError(t, err)
	assert.Equal(t, SourceAssistant, r.Source)
	assert.Equal(t, "sess-1", r.SessionID)
	assert.Equal(t, fc.reply, r.Message)
	assert.Contains(t, fc.system, "Sambar Powder")

	_, err = svc.Reply(ctx, "sess-1", "and 250g?")
	require.NoError(t, err)
	require.Len(t, fc.history, 3)
	assert.Equal(t, "price of 1kg sambar?", fc.history[0].Content)
	assert.Equal(t, RoleAssistant, fc.history[1].Role)
	assert.Equal(t, "and 250g?", fc.history[2].Content)
	assert.Len(t, svc.Store.History("sess-1"), 4)
}

func TestService_Reply_FallsBack(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		svc  *Service
	}{
		{"no completer", &Service{Store: NewSessionStore(10, 10)}},
		{"completer error", &Service{Store: NewSessionStore(10, 10), Completer: &fakeCompleter{err: ErrQuota}}},
		{"timeout", &Service{Store: NewSessionStore(10, 10), Completer: &fakeCompleter{block: true}, Timeout: 20 * time.Millisecond}},
		{"catalog down", &Service{Store: NewSessionStore(10, 10), Completer: &fakeCompleter{err: errors.New("boom")}, Products: staticProducts{err: errors.New("db down")}}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, err := tt.svc.Reply(context.Background(), "", "when do you deliver?")
			require.NoError(t, err)
			assert.Equal(t, SourceFallback, r.Source)
			assert.Equal(t, fallbackTable[1].reply, r.Message)
			assert.NotEmpty(t, r.SessionID)
			assert.Len(t, tt.svc.Store.History(r.SessionID), 2)
		})
	}
}

func TestService_Reply_Validation(t *testing.T) {
	t.Parallel()

	svc := &Service{Store: NewSessionStore(10, 10)}
	_, err := svc.Reply(context.Background(), "s", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	long := make([]rune, maxMessageLen+1)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Reply(context.Background(), "s", string(long))
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, svc.Store.History("s"))
}

func TestService_Reply_SessionID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"uuid", "3f1c2a7e-9d2b-4c1e-8f3a-0b5e6d7c8a91", false},
		{"at the cap", strings.Repeat("a", maxSessionIDLen), false},
		{"over the cap", strings.Repeat("a", maxSessionIDLen+1), true},
		{"spaces", "sess 1", true},
		{"path", "../etc", true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &Service{Store: NewSessionStore(10, 10)}
			r, err := svc.Reply(context.Background(), tt.id, "hello")
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, svc.Store.History(tt.id))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, r.SessionID)
			assert.Len(t, svc.Store.History(tt.id), 2)
		})
	}
}
