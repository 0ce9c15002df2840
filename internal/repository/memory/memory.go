// Package memory provides in-process implementations of the repository
// interfaces, used by tests and local demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spec-kit/crm/internal/domain"
	"github.com/spec-kit/crm/internal/repository"
	"github.com/spec-kit/crm/pkg/password"
)

// Store holds every table behind one mutex.
type Store struct {
	mu        sync.Mutex
	sequences map[string]int64
	users     map[int64]domain.User
	roles     map[int64]domain.PermissionSet
	clients   map[int64]domain.Client
	contracts map[int64]domain.Contract
	events    map[int64]domain.Event
	attempts  map[string]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		sequences: map[string]int64{},
		users:     map[int64]domain.User{},
		roles:     map[int64]domain.PermissionSet{},
		clients:   map[int64]domain.Client{},
		contracts: map[int64]domain.Contract{},
		events:    map[int64]domain.Event{},
		attempts:  map[string]int64{},
	}
}

// id draws the next value of a per-table sequence, like BIGSERIAL.
func (s *Store) id(table string) int64 {
	s.sequences[table]++
	return s.sequences[table]
}

// Users returns the user repository view of the store.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Roles returns the role repository view of the store.
func (s *Store) Roles() repository.RoleRepository { return roleRepo{s} }

// Clients returns the client repository view of the store.
func (s *Store) Clients() repository.ClientRepository { return clientRepo{s} }

// Contracts returns the contract repository view of the store.
func (s *Store) Contracts() repository.ContractRepository { return contractRepo{s} }

// Events returns the event repository view of the store.
func (s *Store) Events() repository.EventRepository { return eventRepo{s} }

// LoginAttempts returns a counter that ignores the expiry window.
func (s *Store) LoginAttempts() repository.LoginAttemptRepository { return attemptRepo{s} }

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func page[T any](items []T, limit, offset int) []T {
	if offset > len(items) {
		return nil
	}
	items = items[max(offset, 0):]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkUserUnique(user, 0); err != nil {
		return err
	}
	if user.PermissionSetID != nil {
		if _, ok := r.s.roles[*user.PermissionSetID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	user.ID = r.s.id("users")
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.PermissionSet = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) Update(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.checkUserUnique(user, user.ID); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()
	stored := *user
	stored.PermissionSet = nil
	r.s.users[user.ID] = stored
	return nil
}

func (r userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	for cid, c := range r.s.clients {
		if c.CommercialContactID != nil && *c.CommercialContactID == id {
			c.CommercialContactID = nil
			r.s.clients[cid] = c
		}
	}
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.s.withPermissionSet(user), nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			return r.s.withPermissionSet(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) Authenticate(ctx context.Context, email, plain string) (*domain.User, error) {
	user, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !password.Verify(user.PasswordHash, plain) {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	users := make([]domain.User, 0, len(r.s.users))
	for _, id := range sortedKeys(r.s.users) {
		users = append(users, *r.s.withPermissionSet(r.s.users[id]))
	}
	return users, nil
}

func (r userRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return int64(len(r.s.users)), nil
}

func (s *Store) checkUserUnique(user *domain.User, self int64) error {
	for id, other := range s.users {
		if id == self {
			continue
		}
		if strings.EqualFold(other.Email, user.Email) || other.EmployeeNumber == user.EmployeeNumber {
			return repository.ErrAlreadyExists
		}
	}
	return nil
}

func (s *Store) withPermissionSet(user domain.User) *domain.User {
	if user.PermissionSetID != nil {
		if set, ok := s.roles[*user.PermissionSetID]; ok {
			user.PermissionSet = &set
		} else {
			user.PermissionSetID = nil
		}
	}
	return &user
}

type roleRepo struct{ s *Store }

func (r roleRepo) Create(_ context.Context, role *domain.PermissionSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.roles {
		if other.Name == role.Name {
			return repository.ErrAlreadyExists
		}
	}
	role.ID = r.s.id("roles")
	r.s.roles[role.ID] = *role
	return nil
}

func (r roleRepo) Update(_ context.Context, role *domain.PermissionSet) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[role.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range r.s.roles {
		if id != role.ID && other.Name == role.Name {
			return repository.ErrAlreadyExists
		}
	}
	r.s.roles[role.ID] = *role
	return nil
}

func (r roleRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.roles[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.roles, id)
	for uid, user := range r.s.users {
		if user.PermissionSetID != nil && *user.PermissionSetID == id {
			user.PermissionSetID = nil
			r.s.users[uid] = user
		}
	}
	return nil
}

func (r roleRepo) GetByID(_ context.Context, id int64) (*domain.PermissionSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	role, ok := r.s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &role, nil
}

func (r roleRepo) GetByName(_ context.Context, name string) (*domain.PermissionSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, role := range r.s.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r roleRepo) List(_ context.Context) ([]domain.PermissionSet, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	roles := make([]domain.PermissionSet, 0, len(r.s.roles))
	for _, role := range r.s.roles {
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles, nil
}

type clientRepo struct{ s *Store }

func (r clientRepo) Create(_ context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.checkClient(client, 0); err != nil {
		return err
	}
	client.ID = r.s.id("clients")
	client.CreatedAt = time.Now().UTC().Truncate(24 * time.Hour)
	r.s.clients[client.ID] = *client
	return nil
}

func (r clientRepo) Update(_ context.Context, client *domain.Client) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[client.ID]; !ok {
		return repository.ErrNotFound
	}
	if err := r.s.checkClient(client, client.ID); err != nil {
		return err
	}
	r.s.clients[client.ID] = *client
	return nil
}

func (s *Store) checkClient(client *domain.Client, self int64) error {
	for id, other := range s.clients {
		if id != self && strings.EqualFold(other.Email, client.Email) {
			return repository.ErrAlreadyExists
		}
	}
	if client.CommercialContactID != nil {
		if _, ok := s.users[*client.CommercialContactID]; !ok {
			return repository.ErrInvalidReference
		}
	}
	return nil
}

func (r clientRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.clients, id)
	for cid, contract := range r.s.contracts {
		if contract.ClientID == id {
			r.s.deleteContract(cid)
		}
	}
	return nil
}

func (r clientRepo) GetByID(_ context.Context, id int64) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	client, ok := r.s.clients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &client, nil
}

func (r clientRepo) List(_ context.Context, filter repository.ClientFilter) ([]domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var clients []domain.Client
	for _, id := range sortedKeys(r.s.clients) {
		client := r.s.clients[id]
		if filter.CommercialContactID != nil &&
			(client.CommercialContactID == nil || *client.CommercialContactID != *filter.CommercialContactID) {
			continue
		}
		clients = append(clients, client)
	}
	return page(clients, filter.Limit, filter.Offset), nil
}

type contractRepo struct{ s *Store }

func (r contractRepo) Create(_ context.Context, contract *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[contract.ClientID]; !ok {
		return repository.ErrInvalidReference
	}
	contract.ID = r.s.id("contracts")
	contract.CreatedAt = time.Now().UTC().Truncate(24 * time.Hour)
	r.s.contracts[contract.ID] = *contract
	return nil
}

func (r contractRepo) Update(_ context.Context, contract *domain.Contract) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[contract.ID]; !ok {
		return repository.ErrNotFound
	}
	if _, ok := r.s.clients[contract.ClientID]; !ok {
		return repository.ErrInvalidReference
	}
	r.s.contracts[contract.ID] = *contract
	return nil
}

func (r contractRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[id]; !ok {
		return repository.ErrNotFound
	}
	r.s.deleteContract(id)
	return nil
}

func (s *Store) deleteContract(id int64) {
	delete(s.contracts, id)
	for eid, event := range s.events {
		if event.ContractID == id {
			delete(s.events, eid)
		}
	}
}

func (r contractRepo) GetByID(_ context.Context, id int64) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	contract, ok := r.s.contracts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &contract, nil
}

func (r contractRepo) List(_ context.Context, filter repository.ContractFilter) ([]domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var contracts []domain.Contract
	for _, id := range sortedKeys(r.s.contracts) {
		c := r.s.contracts[id]
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.CommercialID != nil && (c.CommercialID == nil || *c.CommercialID != *filter.CommercialID) {
			continue
		}
		if filter.Signed != nil && c.Signed != *filter.Signed {
			continue
		}
		contracts = append(contracts, c)
	}
	return page(contracts, filter.Limit, filter.Offset), nil
}

type eventRepo struct{ s *Store }

func (r eventRepo) Create(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[event.ContractID]; !ok {
		return repository.ErrInvalidReference
	}
	event.ID = r.s.id("events")
	r.s.events[event.ID] = *event
	return nil
}

func (r eventRepo) Update(_ context.Context, event *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[event.ID]; !ok {
		return repository.ErrNotFound
	}
	r.s.events[event.ID] = *event
	return nil
}

func (r eventRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.events, id)
	return nil
}

func (r eventRepo) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	event, ok := r.s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &event, nil
}

func (r eventRepo) List(_ context.Context, filter repository.EventFilter) ([]domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var events []domain.Event
	for _, id := range sortedKeys(r.s.events) {
		e := r.s.events[id]
		if filter.ContractID != nil && e.ContractID != *filter.ContractID {
			continue
		}
		if filter.SupportContactID != nil && (e.SupportContactID == nil || *e.SupportContactID != *filter.SupportContactID) {
			continue
		}
		events = append(events, e)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].StartDate.Before(events[j].StartDate) })
	return page(events, filter.Limit, filter.Offset), nil
}

type attemptRepo struct{ s *Store }

func (r attemptRepo) Failures(_ context.Context, email string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.attempts[strings.ToLower(email)], nil
}

func (r attemptRepo) RecordFailure(_ context.Context, email string, _ time.Duration) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(email)
	r.s.attempts[key]++
	return r.s.attempts[key], nil
}

func (r attemptRepo) Reset(_ context.Context, email string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.attempts, strings.ToLower(email))
	return nil
}
