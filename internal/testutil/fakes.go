// Пакет testutil — in-memory реализации репозиториев для unit-тестов
// сервисов и обработчиков. Поведение повторяет PostgreSQL-репозитории:
// уникальность логинов и ключей справочников, каскадное удаление документов,
// атомарность CreateBatch.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bigkaa/reurb-backend/internal/domain/model"
	"github.com/bigkaa/reurb-backend/internal/repository"
)

// Store — общее in-memory хранилище всех таблиц.
type Store struct {
	mu sync.Mutex

	nextID int64
	now    func() time.Time

	users     map[int64]*model.User
	regs      map[int64]*model.Registration
	docs      map[int64]*model.Document
	refs      map[model.ReferenceKind]map[int64]*model.ReferenceEntry
	lookups   int
	lookupErr error
	batchErr  error
}

// NewStore создаёт пустое хранилище.
func NewStore() *Store {
	s := &Store{
		now:   time.Now,
		users: make(map[int64]*model.User),
		regs:  make(map[int64]*model.Registration),
		docs:  make(map[int64]*model.Document),
		refs:  make(map[model.ReferenceKind]map[int64]*model.ReferenceEntry),
	}
	for _, k := range model.ReferenceKinds() {
		s.refs[k] = make(map[int64]*model.ReferenceEntry)
	}
	return s
}

// SetLookupError заставляет FindValue возвращать err (nil — отключить).
func (s *Store) SetLookupError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookupErr = err
}

// SetBatchError заставляет CreateBatch завершаться ошибкой без сохранения.
func (s *Store) SetBatchError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchErr = err
}

// Lookups возвращает количество вызовов FindValue.
func (s *Store) Lookups() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

// RegistrationCount возвращает количество сохранённых записей.
func (s *Store) RegistrationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regs)
}

// DocumentCount возвращает количество строк documents.
func (s *Store) DocumentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Users возвращает UserRepository поверх хранилища.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// Registrations возвращает RegistrationRepository поверх хранилища.
func (s *Store) Registrations() repository.RegistrationRepository { return &registrationRepo{s} }

// Documents возвращает DocumentRepository поверх хранилища.
func (s *Store) Documents() repository.DocumentRepository { return &documentRepo{s} }

// References возвращает ReferenceRepository поверх хранилища.
func (s *Store) References() repository.ReferenceRepository { return &referenceRepo{s} }

// --- users ---

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, u *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Login == u.Login {
			return repository.ErrConflict
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.s.now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *userRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Login == login {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*model.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) Update(_ context.Context, id int64, upd model.UserUpdate) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Login != nil {
		for _, other := range r.s.users {
			if other.ID != id && other.Login == *upd.Login {
				return nil, repository.ErrConflict
			}
		}
	}

	next := *u
	if upd.Name != nil {
		next.Name = *upd.Name
	}
	if upd.Login != nil {
		next.Login = *upd.Login
	}
	if upd.Role != nil {
		next.Role = *upd.Role
	}
	if upd.PasswordHash != nil {
		next.PasswordHash = *upd.PasswordHash
	}
	next.UpdatedAt = r.s.now()
	r.s.users[id] = &next

	cp := next
	return &cp, nil
}

func (r *userRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.users, id)
	return nil
}

// --- registrations ---

type registrationRepo struct{ s *Store }

func (r *registrationRepo) insert(reg *model.Registration) {
	reg.ID = r.s.id()
	reg.CreatedAt = r.s.now()
	reg.UpdatedAt = reg.CreatedAt
	cp := *reg
	r.s.regs[reg.ID] = &cp
}

func (r *registrationRepo) Create(_ context.Context, reg *model.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.insert(reg)
	return nil
}

func (r *registrationRepo) CreateBatch(_ context.Context, regs []*model.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.batchErr != nil {
		return r.s.batchErr
	}
	for _, reg := range regs {
		r.insert(reg)
	}
	return nil
}

func (r *registrationRepo) GetByID(_ context.Context, id int64) (*model.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	reg, ok := r.s.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *registrationRepo) FindByInscricao(_ context.Context, inscricao string) (*model.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var found *model.Registration
	for _, reg := range r.s.regs {
		if reg.InscricaoImobiliaria != nil && *reg.InscricaoImobiliaria == inscricao {
			if found == nil || reg.ID < found.ID {
				found = reg
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *registrationRepo) List(_ context.Context) ([]*model.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*model.Registration, 0, len(r.s.regs))
	for _, reg := range r.s.regs {
		cp := *reg
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *registrationRepo) Update(_ context.Context, reg *model.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing, ok := r.s.regs[reg.ID]
	if !ok {
		return repository.ErrNotFound
	}
	reg.CreatedAt = existing.CreatedAt
	reg.UpdatedAt = r.s.now()
	cp := *reg
	r.s.regs[reg.ID] = &cp
	return nil
}

func (r *registrationRepo) Delete(_ context.Context, id int64) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.regs[id]; !ok {
		return nil, repository.ErrNotFound
	}
	var paths []string
	for docID, d := range r.s.docs {
		if d.RegistrationID == id {
			paths = append(paths, d.StoragePath)
			delete(r.s.docs, docID)
		}
	}
	delete(r.s.regs, id)
	sort.Strings(paths)
	return paths, nil
}

func (r *registrationRepo) Exists(_ context.Context, id int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, ok := r.s.regs[id]
	return ok, nil
}

// --- documents ---

type documentRepo struct{ s *Store }

func (r *documentRepo) Create(_ context.Context, doc *model.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.regs[doc.RegistrationID]; !ok {
		return repository.ErrNotFound
	}
	doc.ID = r.s.id()
	doc.UploadedAt = r.s.now()
	cp := *doc
	r.s.docs[doc.ID] = &cp
	return nil
}

func (r *documentRepo) ListByRegistration(_ context.Context, registrationID int64) ([]*model.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []*model.Document
	for _, d := range r.s.docs {
		if d.RegistrationID == registrationID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *documentRepo) CountByRegistration(_ context.Context, registrationID int64) (int, error) {
	docs, _ := r.ListByRegistration(context.Background(), registrationID)
	return len(docs), nil
}

// --- reference tables ---

type referenceRepo struct{ s *Store }

func (r *referenceRepo) List(_ context.Context, kind model.ReferenceKind) ([]*model.ReferenceEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]*model.ReferenceEntry, 0, len(r.s.refs[kind]))
	for _, e := range r.s.refs[kind] {
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *referenceRepo) Create(_ context.Context, entry *model.ReferenceEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.refs[entry.Kind] {
		if e.Key == entry.Key {
			return repository.ErrConflict
		}
	}
	entry.ID = r.s.id()
	cp := *entry
	r.s.refs[entry.Kind][entry.ID] = &cp
	return nil
}

func (r *referenceRepo) Delete(_ context.Context, kind model.ReferenceKind, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.refs[kind][id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.refs[kind], id)
	return nil
}

func (r *referenceRepo) FindValue(_ context.Context, kind model.ReferenceKind, key string) (float64, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.lookups++
	if r.s.lookupErr != nil {
		return 0, false, r.s.lookupErr
	}
	for _, e := range r.s.refs[kind] {
		if e.Key == key {
			return e.Value, true, nil
		}
	}
	return 0, false, nil
}

// AddReference добавляет строку справочника напрямую, минуя сервис.
func (s *Store) AddReference(kind model.ReferenceKind, key string, value float64) *model.ReferenceEntry {
	entry := &model.ReferenceEntry{Kind: kind, Key: key, Value: value}
	if err := s.References().Create(context.Background(), entry); err != nil {
		panic(err)
	}
	return entry
}
