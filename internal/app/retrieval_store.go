package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/vidfetch/internal/domain"
	"go.uber.org/zap"
)

// RetrievalStore hands out one-shot, expiring tickets for produced files.
// Tickets live in memory only; expiring a ticket never deletes the file.
type RetrievalStore struct {
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
	mu      sync.Mutex
	tickets map[string]*domain.DownloadTicket
}

// NewRetrievalStore creates a store whose tickets expire after ttl (0 disables expiry)
func NewRetrievalStore(ttl time.Duration, logger *zap.Logger) *RetrievalStore {
	return &RetrievalStore{
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
		tickets: make(map[string]*domain.DownloadTicket),
	}
}

// Put registers result and returns its ticket
func (s *RetrievalStore) Put(result *domain.DownloadResult) *domain.DownloadTicket {
	ticket := &domain.DownloadTicket{
		Token:  uuid.New().String(),
		Result: result,
	}
	if s.ttl > 0 {
		ticket.ExpiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.tickets[ticket.Token] = ticket
	s.mu.Unlock()

	return ticket
}

// Take redeems a ticket. A token can be redeemed once; expired or unknown tokens report false.
func (s *RetrievalStore) Take(token string) (*domain.DownloadResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[token]
	if !ok {
		return nil, false
	}
	delete(s.tickets, token)

	if ticket.Expired(s.now()) {
		return nil, false
	}
	return ticket.Result, true
}

// Peek returns a ticket without redeeming it
func (s *RetrievalStore) Peek(token string) (*domain.DownloadTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[token]
	if !ok || ticket.Expired(s.now()) {
		return nil, false
	}
	return ticket, true
}

// Len returns the number of outstanding tickets
func (s *RetrievalStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}

// Sweep drops tickets expired at now and returns how many were dropped
func (s *RetrievalStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, ticket := range s.tickets {
		if ticket.Expired(now) {
			delete(s.tickets, token)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done
func (s *RetrievalStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.Sweep(s.now()); removed > 0 && s.logger != nil {
				s.logger.Debug("Expired retrieval tickets dropped", zap.Int("count", removed))
			}
		}
	}
}
