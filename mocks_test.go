package portal_test

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	portal "github.com/goliatone/go-portal"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

// memStore backs the fake repositories with plain maps. A single
// mutex stands in for the database's isolation.
type memStore struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*portal.User
	groups    map[uuid.UUID]*portal.Group
	members   map[uuid.UUID]map[uuid.UUID]bool
	tasks     map[uuid.UUID]*portal.Task
	companies map[uuid.UUID]*portal.Company
	events    map[uuid.UUID]*portal.Event
	resets    map[uuid.UUID]*portal.PasswordResetToken
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[uuid.UUID]*portal.User{},
		groups:    map[uuid.UUID]*portal.Group{},
		members:   map[uuid.UUID]map[uuid.UUID]bool{},
		tasks:     map[uuid.UUID]*portal.Task{},
		companies: map[uuid.UUID]*portal.Company{},
		events:    map[uuid.UUID]*portal.Event{},
		resets:    map[uuid.UUID]*portal.PasswordResetToken{},
	}
}

func notFound() error {
	return repository.NewRecordNotFound()
}

// fakeTx stands in where an interface method wants a bun.IDB; the
// fakes never touch it
func fakeTx() bun.Tx {
	return bun.Tx{}
}

// fakeRepoManager satisfies portal.RepositoryManager on top of the
// shared memStore. RunInTx has no rollback; tests that exercise
// rollback semantics assert on observable state instead.
type fakeRepoManager struct {
	store *memStore
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{store: newMemStore()}
}

func (m *fakeRepoManager) Validate() error { return nil }
func (m *fakeRepoManager) MustValidate()   {}

func (m *fakeRepoManager) RunInTx(ctx context.Context, _ *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *fakeRepoManager) Users() portal.Users                   { return &fakeUsers{m.store} }
func (m *fakeRepoManager) Groups() portal.Groups                 { return &fakeGroups{m.store} }
func (m *fakeRepoManager) Tasks() portal.Tasks                   { return &fakeTasks{m.store} }
func (m *fakeRepoManager) Companies() portal.Companies           { return &fakeCompanies{m.store} }
func (m *fakeRepoManager) Events() portal.Events                 { return &fakeEvents{m.store} }
func (m *fakeRepoManager) PasswordResets() portal.PasswordResets { return &fakeResets{m.store} }

type fakeUsers struct{ s *memStore }

func (f *fakeUsers) GetByID(ctx context.Context, id uuid.UUID) (*portal.User, error) {
	return f.GetByIDTx(ctx, bun.Tx{}, id)
}

func (f *fakeUsers) GetByIDTx(_ context.Context, _ bun.IDB, id uuid.UUID) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if user, ok := f.s.users[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, notFound()
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*portal.User, error) {
	return f.GetByEmailTx(ctx, bun.Tx{}, email)
}

func (f *fakeUsers) GetByEmailTx(_ context.Context, _ bun.IDB, email string) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, user := range f.s.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, notFound()
}

func (f *fakeUsers) List(_ context.Context, search string) ([]*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.User
	needle := strings.ToLower(search)
	for _, user := range f.s.users {
		if search == "" ||
			strings.Contains(strings.ToLower(user.Email), needle) ||
			strings.Contains(strings.ToLower(user.FirstName), needle) ||
			strings.Contains(strings.ToLower(user.Surname), needle) {
			clone := *user
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (f *fakeUsers) Register(ctx context.Context, user *portal.User) (*portal.User, error) {
	return f.RegisterTx(ctx, bun.Tx{}, user)
}

func (f *fakeUsers) RegisterTx(_ context.Context, _ bun.IDB, user *portal.User) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = portal.RoleUser
	}
	clone := *user
	f.s.users[user.ID] = &clone
	return user, nil
}

func (f *fakeUsers) Update(ctx context.Context, user *portal.User) (*portal.User, error) {
	return f.UpdateTx(ctx, bun.Tx{}, user)
}

func (f *fakeUsers) UpdateTx(_ context.Context, _ bun.IDB, user *portal.User) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[user.ID]; !ok {
		return nil, notFound()
	}
	clone := *user
	f.s.users[user.ID] = &clone
	return user, nil
}

func (f *fakeUsers) SetRole(_ context.Context, id uuid.UUID, role portal.UserRole) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	user, ok := f.s.users[id]
	if !ok {
		return nil, notFound()
	}
	user.Role = role
	clone := *user
	return &clone, nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool) (*portal.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	user, ok := f.s.users[id]
	if !ok {
		return nil, notFound()
	}
	user.IsActive = active
	clone := *user
	return &clone, nil
}

func (f *fakeUsers) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.users[id]; !ok {
		return notFound()
	}
	delete(f.s.users, id)
	return nil
}

func (f *fakeUsers) ResetPasswordTx(_ context.Context, _ bun.IDB, id uuid.UUID, passwordHash string) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	user, ok := f.s.users[id]
	if !ok {
		return notFound()
	}
	user.PasswordHash = passwordHash
	return nil
}

type fakeGroups struct{ s *memStore }

func (f *fakeGroups) GetByID(_ context.Context, id uuid.UUID) (*portal.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if group, ok := f.s.groups[id]; ok {
		clone := *group
		return &clone, nil
	}
	return nil, notFound()
}

func (f *fakeGroups) GetByName(_ context.Context, name string) (*portal.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, group := range f.s.groups {
		if strings.EqualFold(group.Name, name) {
			clone := *group
			return &clone, nil
		}
	}
	return nil, notFound()
}

func (f *fakeGroups) List(_ context.Context) ([]*portal.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.Group
	for _, group := range f.s.groups {
		clone := *group
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeGroups) Create(_ context.Context, group *portal.Group) (*portal.Group, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	clone := *group
	f.s.groups[group.ID] = &clone
	return group, nil
}

func (f *fakeGroups) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.groups[id]; !ok {
		return notFound()
	}
	delete(f.s.groups, id)
	delete(f.s.members, id)
	return nil
}

func (f *fakeGroups) AddMember(_ context.Context, groupID, userID uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.members[groupID] == nil {
		f.s.members[groupID] = map[uuid.UUID]bool{}
	}
	f.s.members[groupID][userID] = true
	return nil
}

func (f *fakeGroups) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	delete(f.s.members[groupID], userID)
	return nil
}

func (f *fakeGroups) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	return f.IsMemberTx(ctx, bun.Tx{}, groupID, userID)
}

func (f *fakeGroups) IsMemberTx(_ context.Context, _ bun.IDB, groupID, userID uuid.UUID) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return f.s.members[groupID][userID], nil
}

func (f *fakeGroups) GroupIDsForUser(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []uuid.UUID
	for groupID, members := range f.s.members {
		if members[userID] {
			out = append(out, groupID)
		}
	}
	return out, nil
}

type fakeTasks struct{ s *memStore }

func (f *fakeTasks) GetByID(ctx context.Context, id uuid.UUID) (*portal.Task, error) {
	return f.GetByIDTx(ctx, bun.Tx{}, id)
}

func (f *fakeTasks) GetByIDTx(_ context.Context, _ bun.IDB, id uuid.UUID) (*portal.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if task, ok := f.s.tasks[id]; ok {
		clone := *task
		return &clone, nil
	}
	return nil, notFound()
}

func (f *fakeTasks) ListAll(_ context.Context) ([]*portal.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.Task
	for _, task := range f.s.tasks {
		clone := *task
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeTasks) ListForUser(_ context.Context, userID uuid.UUID, groupIDs []uuid.UUID) ([]*portal.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	inGroups := map[uuid.UUID]bool{}
	for _, id := range groupIDs {
		inGroups[id] = true
	}
	var out []*portal.Task
	for _, task := range f.s.tasks {
		if task.OwnerID == userID || (task.GroupID != nil && inGroups[*task.GroupID]) {
			clone := *task
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeTasks) Create(_ context.Context, task *portal.Task) (*portal.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	if task.Status == "" {
		task.Status = portal.TaskStatusNew
	}
	clone := *task
	f.s.tasks[task.ID] = &clone
	return task, nil
}

func (f *fakeTasks) UpdateTx(_ context.Context, _ bun.IDB, task *portal.Task) (*portal.Task, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tasks[task.ID]; !ok {
		return nil, notFound()
	}
	clone := *task
	f.s.tasks[task.ID] = &clone
	return task, nil
}

func (f *fakeTasks) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.tasks[id]; !ok {
		return notFound()
	}
	delete(f.s.tasks, id)
	return nil
}

func (f *fakeTasks) UnlinkCompanyTx(_ context.Context, _ bun.IDB, companyID uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, task := range f.s.tasks {
		if task.CompanyID != nil && *task.CompanyID == companyID {
			task.CompanyID = nil
		}
	}
	return nil
}

type fakeCompanies struct{ s *memStore }

func (f *fakeCompanies) GetByID(_ context.Context, id uuid.UUID) (*portal.Company, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if company, ok := f.s.companies[id]; ok {
		clone := *company
		return &clone, nil
	}
	return nil, notFound()
}

func (f *fakeCompanies) GetByName(_ context.Context, name string) (*portal.Company, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, company := range f.s.companies {
		if strings.EqualFold(company.Name, name) {
			clone := *company
			return &clone, nil
		}
	}
	return nil, notFound()
}

func (f *fakeCompanies) GetByVAT(_ context.Context, vat string) (*portal.Company, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, company := range f.s.companies {
		if company.VATNumber == vat {
			clone := *company
			return &clone, nil
		}
	}
	return nil, notFound()
}

func (f *fakeCompanies) List(_ context.Context) ([]*portal.Company, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.Company
	for _, company := range f.s.companies {
		clone := *company
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeCompanies) Create(_ context.Context, company *portal.Company) (*portal.Company, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if company.ID == uuid.Nil {
		company.ID = uuid.New()
	}
	clone := *company
	f.s.companies[company.ID] = &clone
	return company, nil
}

func (f *fakeCompanies) DeleteTx(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.companies[id]; !ok {
		return notFound()
	}
	delete(f.s.companies, id)
	return nil
}

type fakeEvents struct{ s *memStore }

func (f *fakeEvents) GetByID(_ context.Context, id uuid.UUID) (*portal.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if event, ok := f.s.events[id]; ok {
		clone := *event
		return &clone, nil
	}
	return nil, notFound()
}

func (f *fakeEvents) List(_ context.Context) ([]*portal.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.Event
	for _, event := range f.s.events {
		clone := *event
		out = append(out, &clone)
	}
	return out, nil
}

func (f *fakeEvents) ListBetween(_ context.Context, from, to time.Time) ([]*portal.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var out []*portal.Event
	for _, event := range f.s.events {
		if !event.EventDate.Before(from) && !event.EventDate.After(to) {
			clone := *event
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (f *fakeEvents) Create(_ context.Context, event *portal.Event) (*portal.Event, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	clone := *event
	f.s.events[event.ID] = &clone
	return event, nil
}

func (f *fakeEvents) Delete(_ context.Context, id uuid.UUID) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.events[id]; !ok {
		return notFound()
	}
	delete(f.s.events, id)
	return nil
}

type fakeResets struct{ s *memStore }

func (f *fakeResets) GetActiveByToken(ctx context.Context, token string) (*portal.PasswordResetToken, error) {
	return f.GetActiveByTokenTx(ctx, bun.Tx{}, token)
}

func (f *fakeResets) GetActiveByTokenTx(_ context.Context, _ bun.IDB, token string) (*portal.PasswordResetToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	for _, reset := range f.s.resets {
		if reset.Token == token && !reset.IsUsed {
			clone := *reset
			return &clone, nil
		}
	}
	return nil, notFound()
}

func (f *fakeResets) SupersedeActiveForUserTx(_ context.Context, _ bun.IDB, userID uuid.UUID) (int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	var n int64
	for _, reset := range f.s.resets {
		if reset.UserID == userID && !reset.IsUsed {
			reset.IsUsed = true
			reset.Status = portal.ResetTokenSuperseded
			n++
		}
	}
	return n, nil
}

func (f *fakeResets) CreateTx(_ context.Context, _ bun.IDB, record *portal.PasswordResetToken) (*portal.PasswordResetToken, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Status == "" {
		record.Status = portal.ResetTokenRequested
	}
	clone := *record
	f.s.resets[record.ID] = &clone
	return record, nil
}

func (f *fakeResets) MarkUsedTx(_ context.Context, _ bun.IDB, id uuid.UUID, status portal.ResetTokenStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	reset, ok := f.s.resets[id]
	if !ok || reset.IsUsed {
		return notFound()
	}
	reset.IsUsed = true
	reset.Status = status
	return nil
}

func (f *fakeResets) CountActiveForUser(_ context.Context, userID uuid.UUID) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	count := 0
	for _, reset := range f.s.resets {
		if reset.UserID == userID && !reset.IsUsed {
			count++
		}
	}
	return count, nil
}

// fakeNotifier records deliveries and can be told to fail
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	fail bool
}

type sentNotification struct {
	Recipient string
	Subject   string
	Body      string
}

func (n *fakeNotifier) Send(_ context.Context, recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("smtp unavailable")
	}
	n.sent = append(n.sent, sentNotification{recipient, subject, body})
	return nil
}

func (n *fakeNotifier) deliveries() []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]sentNotification, len(n.sent))
	copy(out, n.sent)
	return out
}

// testConfig implements portal.Config without any env plumbing
type testConfig struct {
	signingKey string
	tokenExp   int
	resetExp   int
}

func (c testConfig) GetSigningKey() string        { return c.signingKey }
func (c testConfig) GetTokenExpiration() int      { return c.tokenExp }
func (c testConfig) GetResetTokenExpiration() int { return c.resetExp }
func (c testConfig) GetIssuer() string            { return "portal-test" }
func (c testConfig) GetAudience() []string        { return []string{"portal:test"} }
func (c testConfig) GetResetLinkBase() string     { return "https://portal.test/reset-password" }

func newTestConfig() testConfig {
	return testConfig{signingKey: "test-signing-key", tokenExp: 240, resetExp: 60}
}

// seedUser registers a user with a bcrypt digest at the minimum cost
// to keep the suite fast
func seedUser(repo *fakeRepoManager, email, password string, role portal.UserRole) *portal.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	user := &portal.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if _, err := repo.Users().Register(context.Background(), user); err != nil {
		panic(err)
	}
	return user
}
