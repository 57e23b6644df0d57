package store

import (
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/pkg/events"
)

// DocumentsState is a read snapshot of the documents cache.
type DocumentsState struct {
	Documents     []entity.Document `json:"documents"`
	IsLoading     bool              `json:"isLoading"`
	IsInitialized bool              `json:"isInitialized"`
	Error         string            `json:"error,omitempty"`
}

// DocumentsStore caches the document library of the active tenant. It owns
// its entries until Reset or a fresh SetDocuments keyed on the current tenant.
type DocumentsStore struct {
	mu            sync.Mutex
	documents     []entity.Document
	isLoading     bool
	isInitialized bool
	err           error

	publisher message.Publisher
}

func NewDocumentsStore(publisher message.Publisher) *DocumentsStore {
	return &DocumentsStore{publisher: publisher}
}

func (d *DocumentsStore) SetDocuments(documents []entity.Document) {
	d.mu.Lock()
	d.documents = documents
	d.isInitialized = true
	d.err = nil
	d.mu.Unlock()
	d.publishChanged()
}

func (d *DocumentsStore) AddDocument(document entity.Document) {
	d.mu.Lock()
	d.documents = append(d.documents, document)
	d.mu.Unlock()
	d.publishChanged()
}

func (d *DocumentsStore) RemoveDocument(documentId string) {
	d.mu.Lock()
	kept := d.documents[:0]
	for _, doc := range d.documents {
		if doc.Id != documentId {
			kept = append(kept, doc)
		}
	}
	d.documents = kept
	d.mu.Unlock()
	d.publishChanged()
}

// UpdateDocument applies a partial update to one entry; missing ids are a
// silent no-op, matching the replace-if-present merge of the dashboard.
func (d *DocumentsStore) UpdateDocument(documentId string, apply func(*entity.Document)) {
	d.mu.Lock()
	for i := range d.documents {
		if d.documents[i].Id == documentId {
			apply(&d.documents[i])
			break
		}
	}
	d.mu.Unlock()
	d.publishChanged()
}

func (d *DocumentsStore) SetLoading(loading bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.isLoading = loading
}

func (d *DocumentsStore) SetError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.err = err
	d.isLoading = false
}

// Reset drops everything, including the initialized flag: after a tenant
// change the cache must read as never-populated, not as empty-but-fresh.
func (d *DocumentsStore) Reset() {
	d.mu.Lock()
	d.documents = nil
	d.isLoading = false
	d.isInitialized = false
	d.err = nil
	d.mu.Unlock()
	d.publishChanged()
}

func (d *DocumentsStore) Hydrate(documents []entity.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.documents = documents
	d.isLoading = false
	d.isInitialized = true
}

func (d *DocumentsStore) Documents() []entity.Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]entity.Document, len(d.documents))
	copy(out, d.documents)
	return out
}

func (d *DocumentsStore) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.isInitialized
}

func (d *DocumentsStore) State() DocumentsState {
	d.mu.Lock()
	defer d.mu.Unlock()
	state := DocumentsState{
		Documents:     d.documents,
		IsLoading:     d.isLoading,
		IsInitialized: d.isInitialized,
	}
	if state.Documents == nil {
		state.Documents = []entity.Document{}
	}
	if d.err != nil {
		state.Error = d.err.Error()
	}
	return state
}

func (d *DocumentsStore) publishChanged() {
	if d.publisher == nil {
		return
	}
	payload, err := marshalEvent(events.New(events.DocumentChanged, map[string]interface{}{"count": len(d.Documents())}))
	if err != nil {
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	_ = d.publisher.Publish(events.TopicDocuments, msg)
}
