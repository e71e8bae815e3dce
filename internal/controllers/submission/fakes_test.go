package submissionController

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"form95/internal/fieldmap"
	. "form95/internal/models"
	"form95/internal/repositories"
)

type memoryClaims struct {
	mu     sync.Mutex
	byFile map[string]*Claim
	nextID int
}

func newMemoryClaims() *memoryClaims {
	return &memoryClaims{byFile: map[string]*Claim{}}
}

var _ ClaimStore = (*memoryClaims)(nil)

func (m *memoryClaims) Upsert(ctx context.Context, claim *Claim) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *claim
	stored.RecalculateTotal()
	stored.Status = ClaimStatusDraft
	stored.Signature = ""
	stored.SignedAt = nil
	stored.DocumentError = ""
	if existing, ok := m.byFile[claim.DocumentFilename]; ok {
		stored.ID = existing.ID
	} else {
		m.nextID++
		stored.ID = fmt.Sprintf("claim-%d", m.nextID)
	}
	m.byFile[claim.DocumentFilename] = &stored
	return stored.ID, nil
}

func (m *memoryClaims) Update(ctx context.Context, id string, fields map[string]any) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, claim := range m.byFile {
		if claim.ID != id {
			continue
		}
		for column, v := range fields {
			switch column {
			case "signature":
				claim.Signature = v.(string)
			case "signed_at":
				claim.SignedAt = v.(*time.Time)
			case "status":
				claim.Status = v.(ClaimStatus)
			case "document_filename":
				claim.DocumentFilename = v.(string)
			case "document_error":
				claim.DocumentError = v.(string)
			default:
				return nil, errors.New("unexpected column " + column)
			}
		}
		claim.RecalculateTotal()
		copied := *claim
		return &copied, nil
	}
	return nil, repositories.ErrNotFound
}

func (m *memoryClaims) GetByDocumentFilename(ctx context.Context, filename string) (*Claim, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	claim, ok := m.byFile[filename]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	copied := *claim
	return &copied, nil
}

func (m *memoryClaims) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byFile)
}

func (m *memoryClaims) byID(id string) *Claim {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, claim := range m.byFile {
		if claim.ID == id {
			copied := *claim
			return &copied
		}
	}
	return nil
}

func (m *memoryClaims) remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for file, claim := range m.byFile {
		if claim.ID == id {
			delete(m.byFile, file)
		}
	}
}

type memoryUsers struct {
	users map[string]*User
}

func (m *memoryUsers) EnsureUser(ctx context.Context, username string, role UserRole) (*User, error) {
	if m.users == nil {
		m.users = map[string]*User{}
	}
	if user, ok := m.users[username]; ok {
		return user, nil
	}
	user := &User{Username: username, Role: role}
	user.ID = "user-" + username
	m.users[username] = user
	return user, nil
}

type memorySessions struct {
	sessions map[string]SubmissionSession
	cleared  []string
	saveErr  error
}

func newMemorySessions() *memorySessions {
	return &memorySessions{sessions: map[string]SubmissionSession{}}
}

func (m *memorySessions) Load(ctx context.Context, token string) (*SubmissionSession, error) {
	session, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	session.FieldMap = session.FieldMap.Clone()
	return &session, nil
}

func (m *memorySessions) Save(ctx context.Context, token string, session *SubmissionSession) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.sessions[token] = *session
	return nil
}

func (m *memorySessions) Clear(ctx context.Context, token string) error {
	delete(m.sessions, token)
	m.cleared = append(m.cleared, token)
	return nil
}

type directTx struct{}

func (directTx) Execute(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fillCall struct {
	fm       fieldmap.FieldMap
	template string
	output   string
}

type fakeFiller struct {
	calls []fillCall
	err   error
}

func (f *fakeFiller) Fill(ctx context.Context, fm fieldmap.FieldMap, templatePath, outputPath string) (string, error) {
	f.calls = append(f.calls, fillCall{fm: fm, template: templatePath, output: outputPath})
	if f.err != nil {
		return "", f.err
	}
	return outputPath, nil
}

func (f *fakeFiller) Ready() error { return nil }

type recordedEvent struct {
	claimID   string
	eventType string
}

type fakeNotifier struct {
	events []recordedEvent
}

func (n *fakeNotifier) InvalidateClaim(ctx context.Context, claimID, eventType string, data map[string]any) error {
	n.events = append(n.events, recordedEvent{claimID: claimID, eventType: eventType})
	return nil
}
