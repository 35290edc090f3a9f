package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/securedoc/account-service/internal/core/domain"
	"github.com/securedoc/account-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory store: transactions are serialized and rolled back by restoring a
// snapshot taken when they started.
// ---------------------------------------------------------------------------

type memData struct {
	users         map[string]domain.User
	credentials   map[string]domain.Credential
	confirmations map[string]domain.Confirmation
	roles         map[string]domain.Role
}

func (d memData) clone() memData {
	c := memData{
		users:         make(map[string]domain.User, len(d.users)),
		credentials:   make(map[string]domain.Credential, len(d.credentials)),
		confirmations: make(map[string]domain.Confirmation, len(d.confirmations)),
		roles:         make(map[string]domain.Role, len(d.roles)),
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.credentials {
		c.credentials[k] = v
	}
	for k, v := range d.confirmations {
		c.confirmations[k] = v
	}
	for k, v := range d.roles {
		c.roles[k] = v
	}
	return c
}

type memStore struct {
	txMu   sync.Mutex
	mu     sync.Mutex
	data   memData
	nextID int

	// failures injected by tests
	confirmationCreateErr error
	userUpdateErr         error
}

func newMemStore() *memStore {
	return &memStore{data: memData{}.clone()}
}

// newSeededStore returns a store holding the USER role.
func newSeededStore() *memStore {
	s := newMemStore()
	role := domain.NewRole(domain.AuthorityUser)
	role.ID = s.id()
	s.data.roles[role.Name] = *role
	return s
}

func (s *memStore) id() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memStore) Users() ports.UserRepository                 { return memUsers{s} }
func (s *memStore) Credentials() ports.CredentialRepository     { return memCredentials{s} }
func (s *memStore) Confirmations() ports.ConfirmationRepository { return memConfirmations{s} }
func (s *memStore) Roles() ports.RoleRepository                 { return memRoles{s} }
func (s *memStore) Ping(context.Context) error                  { return nil }
func (s *memStore) Close(context.Context) error                 { return nil }

func (s *memStore) counts() (users, credentials, confirmations int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data.users), len(s.data.credentials), len(s.data.confirmations)
}

func (s *memStore) userByEmail(email string) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.data.users {
		if u.Email == email {
			return u, true
		}
	}
	return domain.User{}, false
}

func (s *memStore) confirmationByKey(key string) (domain.Confirmation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.data.confirmations {
		if c.Key == key {
			return c, true
		}
	}
	return domain.Confirmation{}, false
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	stamped := *user
	if err := stamped.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.ID = r.s.id()
	stamped.Role = nil
	r.s.data.users[stamped.ID] = stamped
	user.Auditable = stamped.Auditable
	return nil
}

func (r memUsers) Update(ctx context.Context, user *domain.User) error {
	if r.s.userUpdateErr != nil {
		return r.s.userUpdateErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	stamped := *user
	if err := stamped.StampUpdate(ctx, time.Now()); err != nil {
		return err
	}
	stamped.Role = nil
	r.s.data.users[user.ID] = stamped
	user.Auditable = stamped.Auditable
	return nil
}

func (r memUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r memUsers) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.s.data.users, id)
	for k, c := range r.s.data.credentials {
		if c.UserID == id {
			delete(r.s.data.credentials, k)
		}
	}
	for k, c := range r.s.data.confirmations {
		if c.UserID == id {
			delete(r.s.data.confirmations, k)
		}
	}
	return nil
}

type memCredentials struct{ s *memStore }

func (r memCredentials) Create(ctx context.Context, credential *domain.Credential) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := credential.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	credential.ID = r.s.id()
	r.s.data.credentials[credential.ID] = *credential
	return nil
}

func (r memCredentials) FindByUserID(_ context.Context, userID string) (*domain.Credential, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.credentials {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, domain.ErrCredentialNotFound
}

type memConfirmations struct{ s *memStore }

func (r memConfirmations) Create(ctx context.Context, confirmation *domain.Confirmation) error {
	if r.s.confirmationCreateErr != nil {
		return r.s.confirmationCreateErr
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := confirmation.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	confirmation.ID = r.s.id()
	r.s.data.confirmations[confirmation.ID] = *confirmation
	return nil
}

func (r memConfirmations) FindByKey(_ context.Context, key string) (*domain.Confirmation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.confirmations {
		if c.Key == key {
			return &c, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r memConfirmations) FindByUserID(_ context.Context, userID string) (*domain.Confirmation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.data.confirmations {
		if c.UserID == userID {
			return &c, nil
		}
	}
	return nil, domain.ErrTokenNotFound
}

func (r memConfirmations) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.confirmations[id]; !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.s.data.confirmations, id)
	return nil
}

type memRoles struct{ s *memStore }

func (r memRoles) Create(ctx context.Context, role *domain.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := role.StampCreate(ctx, time.Now()); err != nil {
		return err
	}
	role.ID = r.s.id()
	r.s.data.roles[domain.NormalizeRoleName(role.Name)] = *role
	return nil
}

func (r memRoles) FindByName(_ context.Context, name string) (*domain.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.data.roles[domain.NormalizeRoleName(name)]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return &role, nil
}

// ---------------------------------------------------------------------------
// Publisher stub
// ---------------------------------------------------------------------------

type stubPublisher struct {
	mu     sync.Mutex
	err    error
	events []domain.UserEvent
}

func (p *stubPublisher) Publish(_ context.Context, event domain.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) published() []domain.UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.UserEvent(nil), p.events...)
}
