package store

import (
	"context"
	"io"
	"sync"

	"admin-dashboard-bff/internal/backend"
	"admin-dashboard-bff/internal/entity"
	"admin-dashboard-bff/internal/identity"
	"admin-dashboard-bff/internal/pkg/logger"
)

// eventLog records side effects across doubles so tests can assert ordering.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) record(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *eventLog) all() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *eventLog) indexOf(entry string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

// memoryKV is an in-memory persistence double; optionally records mutations.
type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
	log  *eventLog
}

func newMemoryKV(log *eventLog) *memoryKV {
	return &memoryKV{data: map[string]string{}, log: log}
}

func (kv *memoryKV) Get(key string) (string, bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	value, ok := kv.data[key]
	return value, ok, nil
}

func (kv *memoryKV) Set(key, value string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.data[key] = value
	if kv.log != nil {
		kv.log.record("kv.set:" + key + "=" + value)
	}
	return nil
}

func (kv *memoryKV) Delete(key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.data, key)
	if kv.log != nil {
		kv.log.record("kv.delete:" + key)
	}
	return nil
}

// fakeProvider counts session reads.
type fakeProvider struct {
	mu        sync.Mutex
	session   *identity.Session
	err       error
	readCount int
}

func (p *fakeProvider) GetCurrentSession(ctx context.Context) (*identity.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readCount++
	return p.session, p.err
}

func (p *fakeProvider) RequestOneTimeCode(ctx context.Context, email string) error { return nil }

func (p *fakeProvider) VerifyOneTimeCode(ctx context.Context, email, code string) (*identity.Session, error) {
	return p.session, p.err
}

func (p *fakeProvider) SignOut(ctx context.Context) error { return nil }

func (p *fakeProvider) reads() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.readCount
}

// fakeBackend serves canned workspaces and counts outbound calls; an optional
// gate blocks the call until released so tests can hold a fetch in flight.
type fakeBackend struct {
	mu         sync.Mutex
	workspaces *entity.WorkspaceList
	err        error
	callCount  int
	gate       chan struct{}
}

func (b *fakeBackend) MyWorkspaces(ctx context.Context) (*entity.WorkspaceList, error) {
	b.mu.Lock()
	b.callCount++
	gate := b.gate
	list, err := b.workspaces, b.err
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return list, err
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.callCount
}

func (b *fakeBackend) CheckEmailAllowed(ctx context.Context, email string) (bool, error) {
	return true, nil
}
func (b *fakeBackend) RegisterOrg(ctx context.Context, email, userId string) (*entity.Workspace, error) {
	return nil, nil
}
func (b *fakeBackend) CreateOrg(ctx context.Context, name, description string) (*entity.Workspace, error) {
	return nil, nil
}
func (b *fakeBackend) OrgMembers(ctx context.Context, tenantId string) ([]entity.OrgMember, error) {
	return nil, nil
}
func (b *fakeBackend) AddOrgUser(ctx context.Context, tenantId, email, role string) error { return nil }
func (b *fakeBackend) OrgSettings(ctx context.Context, tenantId string) (*entity.OrgSettings, error) {
	return nil, nil
}
func (b *fakeBackend) ListDocuments(ctx context.Context) ([]entity.Document, error) { return nil, nil }
func (b *fakeBackend) UploadDocument(ctx context.Context, fileName string, file io.Reader, industry string) (*entity.Document, error) {
	return nil, nil
}
func (b *fakeBackend) DeleteDocument(ctx context.Context, documentId string) error  { return nil }
func (b *fakeBackend) TrainDocument(ctx context.Context, documentId string) error   { return nil }
func (b *fakeBackend) UntrainDocument(ctx context.Context, documentId string) error { return nil }

var _ backend.IClient = (*fakeBackend)(nil)
var _ identity.IProvider = (*fakeProvider)(nil)

// recordingCache is a Resettable double that logs resets.
type recordingCache struct {
	name string
	log  *eventLog
}

func (c *recordingCache) Reset() {
	c.log.record("cache.reset:" + c.name)
}

// recordingInvalidator captures tag invalidations.
type recordingInvalidator struct {
	mu   sync.Mutex
	tags []string
}

func (r *recordingInvalidator) InvalidateTags(tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tags...)
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.tags))
	copy(out, r.tags)
	return out
}

func testWorkspaces() *entity.WorkspaceList {
	desc := "shared"
	return &entity.WorkspaceList{
		Personal: &entity.Workspace{
			Id: "ws-1", Name: "Acme Personal", Slug: "acme-personal",
			IsActive: true, IsPersonal: true, OwnerId: "user-1",
		},
		Teams: []entity.Workspace{
			{Id: "ws-2", Name: "Acme Team", Slug: "acme-team", Description: &desc, IsActive: true, OwnerId: "user-1"},
			{Id: "ws-3", Name: "Beta Team", Slug: "beta-team", IsActive: true, OwnerId: "user-2"},
		},
	}
}

func noopLogger() logger.ILogger {
	return logger.Noop()
}
