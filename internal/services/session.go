package services

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/fablehouse/fable-api/internal/models"
)

// Event types pushed to document subscribers.
const (
	EventTypeDocument = "document"
	EventTypeBlock    = "block"
	EventTypeError    = "error"
)

// DocumentEvent is one incremental update pushed to subscribers: either a
// whole-document replacement, a single resolved block, or a story-level
// error that replaced the document.
type DocumentEvent struct {
	Type     string               `json:"type"`
	Epoch    uint64               `json:"epoch"`
	Document *models.Document     `json:"document,omitempty"`
	Block    *models.ContentBlock `json:"block,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// subscriberBuffer bounds each subscriber channel. A slow consumer drops
// events rather than blocking writers.
const subscriberBuffer = 16

// DocumentStore is the versioned container for one session's live document.
// Every generation cycle bumps the epoch; illustration results carry the
// epoch they were dispatched under and are applied only if it still matches,
// so results from a discarded document can never touch the live one.
type DocumentStore struct {
	mu          sync.Mutex
	epoch       uint64
	doc         *models.Document
	errMessage  string
	subscribers map[uint64]chan DocumentEvent
	nextSubID   uint64
}

// NewDocumentStore creates an empty store at epoch zero
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		subscribers: make(map[uint64]chan DocumentEvent),
	}
}

// SetDocument installs doc as the live document and returns the new epoch.
// The previous document and any error state are discarded; outstanding
// illustration results for earlier epochs become no-ops.
func (s *DocumentStore) SetDocument(doc *models.Document) uint64 {
	s.mu.Lock()
	s.epoch++
	s.doc = doc
	s.errMessage = ""
	epoch := s.epoch
	event := DocumentEvent{
		Type:     EventTypeDocument,
		Epoch:    epoch,
		Document: doc.Clone(),
	}
	s.broadcastLocked(event)
	s.mu.Unlock()
	return epoch
}

// SetError replaces the live document with a story-level error state. The
// epoch still advances so in-flight illustrations from the cleared document
// are orphaned.
func (s *DocumentStore) SetError(message string) uint64 {
	s.mu.Lock()
	s.epoch++
	s.doc = nil
	s.errMessage = message
	epoch := s.epoch
	s.broadcastLocked(DocumentEvent{
		Type:  EventTypeError,
		Epoch: epoch,
		Error: message,
	})
	s.mu.Unlock()
	return epoch
}

// UpdateBlockIfEpoch resolves one image block, but only when epoch still
// identifies the live document and the block is still Pending. First write
// wins: a Loaded block is never overwritten. Returns whether the update was
// applied.
func (s *DocumentStore) UpdateBlockIfEpoch(epoch uint64, id models.BlockID, payload string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || s.doc == nil {
		return false
	}
	block, ok := s.doc.Block(id)
	if !ok || block.Status != models.BlockStatusPending {
		return false
	}

	block.Payload = payload
	block.Status = models.BlockStatusLoaded

	updated := *block
	s.broadcastLocked(DocumentEvent{
		Type:  EventTypeBlock,
		Epoch: epoch,
		Block: &updated,
	})
	return true
}

// Snapshot returns a deep copy of the live document plus the current epoch
// and error message. The document is nil when no generation has succeeded
// yet or the last cycle failed.
func (s *DocumentStore) Snapshot() (*models.Document, uint64, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return nil, s.epoch, s.errMessage
	}
	return s.doc.Clone(), s.epoch, ""
}

// Epoch returns the current epoch
func (s *DocumentStore) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Subscribe registers a listener for document events. The returned channel
// receives whole-document, per-block, and error events until unsubscribe is
// called.
func (s *DocumentStore) Subscribe() (<-chan DocumentEvent, func()) {
	s.mu.Lock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan DocumentEvent, subscriberBuffer)
	s.subscribers[id] = ch
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		if sub, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(sub)
		}
		s.mu.Unlock()
	}
	return ch, unsubscribe
}

func (s *DocumentStore) broadcastLocked(event DocumentEvent) {
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscriber: drop the event, the next snapshot catches up
		}
	}
}

// SessionRegistry maps browser session IDs to their document stores. The
// table is a bounded LRU so abandoned sessions age out; there is no
// persistence, an evicted session simply starts fresh.
type SessionRegistry struct {
	mu     sync.Mutex
	stores *lru.Cache[string, *DocumentStore]
}

// NewSessionRegistry creates a registry holding at most size sessions
func NewSessionRegistry(size int) (*SessionRegistry, error) {
	stores, err := lru.New[string, *DocumentStore](size)
	if err != nil {
		return nil, err
	}
	return &SessionRegistry{stores: stores}, nil
}

// Store returns the document store for sessionID, creating it on first use
func (r *SessionRegistry) Store(sessionID string) *DocumentStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	if store, ok := r.stores.Get(sessionID); ok {
		return store
	}
	store := NewDocumentStore()
	r.stores.Add(sessionID, store)
	return store
}

// Len returns the number of live sessions
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Len()
}
