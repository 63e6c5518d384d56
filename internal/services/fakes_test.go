package services

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"community-service/internal/apperr"
	"community-service/internal/authz"
	"community-service/internal/models"
	"community-service/internal/repository"
	"community-service/internal/scheduling"
)

// memDB is an in-memory stand-in for postgres shared by every fake store.
// Atomic snapshots all tables and restores them when fn fails.
type memDB struct {
	mu        sync.Mutex
	seq       int
	accounts  map[int]models.Account
	companies map[int]models.Company
	staff     map[int]models.Staff
	clients   map[int]models.Client
	tasks     map[int]models.Task
	media     map[int]models.Media
}

func newMemDB() *memDB {
	return &memDB{
		accounts:  map[int]models.Account{},
		companies: map[int]models.Company{},
		staff:     map[int]models.Staff{},
		clients:   map[int]models.Client{},
		tasks:     map[int]models.Task{},
		media:     map[int]models.Media{},
	}
}

func (db *memDB) next() int {
	db.seq++
	return db.seq
}

func (db *memDB) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	db.mu.Lock()
	accounts, companies := maps.Clone(db.accounts), maps.Clone(db.companies)
	staff, clients := maps.Clone(db.staff), maps.Clone(db.clients)
	tasks, media := maps.Clone(db.tasks), maps.Clone(db.media)
	db.mu.Unlock()

	if err := fn(ctx); err != nil {
		db.mu.Lock()
		db.accounts, db.companies = accounts, companies
		db.staff, db.clients = staff, clients
		db.tasks, db.media = tasks, media
		db.mu.Unlock()
		return err
	}
	return nil
}

func notFound(entity string) error {
	return apperr.NotFoundf("%s not found!", entity)
}

// Seeding helpers.

func (db *memDB) addAccount(username string, role models.Role) authz.Principal {
	db.mu.Lock()
	defer db.mu.Unlock()
	id := db.next()
	db.accounts[id] = models.Account{ID: id, Username: username, Role: role}
	return authz.Principal{AccountID: id, Username: username, Role: role}
}

func (db *memDB) addCompany(name string) models.Company {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := models.Company{ID: db.next(), Name: name, ABN: "abn-" + name}
	db.companies[c.ID] = c
	return c
}

func (db *memDB) addStaff(userID, companyID int, given string) models.Staff {
	db.mu.Lock()
	defer db.mu.Unlock()
	s := models.Staff{ID: db.next(), UserID: userID, CompanyID: companyID, GivenName: &given}
	db.staff[s.ID] = s
	return s
}

func (db *memDB) addClient(userID, companyID int, ndis string) models.Client {
	db.mu.Lock()
	defer db.mu.Unlock()
	c := models.Client{ID: db.next(), UserID: userID, CompanyID: companyID, NDIS: ndis}
	db.clients[c.ID] = c
	return c
}

// memTasks implements TaskStore.
type memTasks struct{ *memDB }

func (r memTasks) LockStaff(ctx context.Context, staffID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[staffID]; !ok {
		return notFound("Staff")
	}
	return nil
}

func (r memTasks) StaffTasksInDateRange(ctx context.Context, staffID int, from, to models.Date) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Task{}
	for _, t := range r.tasks {
		if t.StaffID == staffID && t.StartDate.Compare(to) <= 0 && t.EndDate.Compare(from) >= 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTasks) Insert(ctx context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := scheduling.Of(*t).Validate(); err != nil {
		return err
	}
	t.ID = r.next()
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	r.tasks[t.ID] = *t
	return nil
}

func (r memTasks) Update(ctx context.Context, t *models.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return notFound("Task")
	}
	r.tasks[t.ID] = *t
	return nil
}

func (r memTasks) SetStatus(ctx context.Context, id int, done bool, doneTime *time.Time) (models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.Task{}, notFound("Task")
	}
	t.Done, t.DoneTime = done, doneTime
	r.tasks[id] = t
	return t, nil
}

func (r memTasks) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return notFound("Task")
	}
	delete(r.tasks, id)
	for mid, m := range r.media {
		if m.TaskID == id {
			delete(r.media, mid)
		}
	}
	return nil
}

func (r memTasks) details(t models.Task) models.TaskDetails {
	st, cl := r.staff[t.StaffID], r.clients[t.ClientID]
	d := models.TaskDetails{Task: t, StaffUserID: st.UserID, ClientUserID: cl.UserID}
	if st.GivenName != nil {
		d.StaffName = *st.GivenName
	}
	for _, m := range r.media {
		if m.TaskID == t.ID {
			d.MediaFiles = append(d.MediaFiles, m.FilePath)
		}
	}
	return d
}

func (r memTasks) Details(ctx context.Context, id int) (models.TaskDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return models.TaskDetails{}, notFound("Task")
	}
	return r.details(t), nil
}

func (r memTasks) match(t models.Task, f repository.TaskFilter) bool {
	switch {
	case f.StaffID != nil && t.StaffID != *f.StaffID:
		return false
	case f.ClientID != nil && t.ClientID != *f.ClientID:
		return false
	case f.From != nil && t.StartDate.Compare(*f.From) < 0:
		return false
	case f.To != nil && t.StartDate.Compare(*f.To) > 0:
		return false
	}
	return true
}

func (r memTasks) ListDetails(ctx context.Context, f repository.TaskFilter) ([]models.TaskDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.TaskDetails{}
	for _, t := range r.tasks {
		if r.match(t, f) {
			out = append(out, r.details(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memTasks) IDs(ctx context.Context, f repository.TaskFilter) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int{}
	for _, t := range r.tasks {
		if r.match(t, f) {
			ids = append(ids, t.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

// memStaff implements StaffStore.
type memStaff struct{ *memDB }

func (r memStaff) Create(ctx context.Context, s *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.next()
	r.staff[s.ID] = *s
	return nil
}

func (r memStaff) GetByID(ctx context.Context, id int) (models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.staff[id]
	if !ok {
		return models.Staff{}, notFound("Staff")
	}
	return s, nil
}

func (r memStaff) GetByUser(ctx context.Context, userID int) (models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.staff {
		if s.UserID == userID {
			return s, nil
		}
	}
	return models.Staff{}, notFound("Staff")
}

func (r memStaff) List(ctx context.Context) ([]models.Staff, error) {
	return r.ListByCompany(ctx, 0)
}

func (r memStaff) ListByCompany(ctx context.Context, companyID int) ([]models.Staff, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Staff{}
	for _, s := range r.staff {
		if companyID == 0 || s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memStaff) Update(ctx context.Context, s *models.Staff) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[s.ID]; !ok {
		return notFound("Staff")
	}
	r.staff[s.ID] = *s
	return nil
}

func (r memStaff) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.staff[id]; !ok {
		return notFound("Staff")
	}
	delete(r.staff, id)
	for tid, t := range r.tasks {
		if t.StaffID == id {
			delete(r.tasks, tid)
		}
	}
	return nil
}

// memClients implements ClientStore.
type memClients struct{ *memDB }

func (r memClients) Create(ctx context.Context, c *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.clients {
		if existing.NDIS == c.NDIS {
			return apperr.Duplicatef("NDIS number already registered")
		}
	}
	c.ID = r.next()
	r.clients[c.ID] = *c
	return nil
}

func (r memClients) GetByID(ctx context.Context, id int) (models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[id]
	if !ok {
		return models.Client{}, notFound("Participant")
	}
	return c, nil
}

func (r memClients) GetByUser(ctx context.Context, userID int) (models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		if c.UserID == userID {
			return c, nil
		}
	}
	return models.Client{}, notFound("Participant")
}

func (r memClients) List(ctx context.Context) ([]models.Client, error) {
	return r.ListByCompany(ctx, 0)
}

func (r memClients) ListByCompany(ctx context.Context, companyID int) ([]models.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Client{}
	for _, c := range r.clients {
		if companyID == 0 || c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memClients) Update(ctx context.Context, c *models.Client) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[c.ID]; !ok {
		return notFound("Participant")
	}
	r.clients[c.ID] = *c
	return nil
}

func (r memClients) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.clients[id]; !ok {
		return notFound("Participant")
	}
	delete(r.clients, id)
	for tid, t := range r.tasks {
		if t.ClientID == id {
			delete(r.tasks, tid)
		}
	}
	return nil
}

// memAccounts implements AccountStore.
type memAccounts struct{ *memDB }

func (r memAccounts) Create(ctx context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == acc.Username {
			return apperr.Duplicatef("Username already registered")
		}
	}
	acc.ID = r.next()
	r.accounts[acc.ID] = *acc
	return nil
}

func (r memAccounts) GetByID(ctx context.Context, id int) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return models.Account{}, notFound("User")
	}
	return a, nil
}

func (r memAccounts) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return models.Account{}, notFound("User")
}

func (r memAccounts) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r memAccounts) List(ctx context.Context) ([]models.AccountSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.AccountSummary{}
	for _, a := range r.accounts {
		out = append(out, models.AccountSummary{ID: a.ID, Username: a.Username, Role: a.Role})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memAccounts) Update(ctx context.Context, id int, username *string, role *models.Role) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return models.Account{}, notFound("User")
	}
	if username != nil {
		a.Username = *username
	}
	if role != nil {
		a.Role = *role
	}
	r.accounts[id] = a
	return a, nil
}

func (r memAccounts) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[id]; !ok {
		return notFound("User")
	}
	delete(r.accounts, id)
	for sid, st := range r.staff {
		if st.UserID == id {
			delete(r.staff, sid)
			for tid, t := range r.tasks {
				if t.StaffID == sid {
					delete(r.tasks, tid)
				}
			}
		}
	}
	for cid, c := range r.clients {
		if c.UserID == id {
			delete(r.clients, cid)
			for tid, t := range r.tasks {
				if t.ClientID == cid {
					delete(r.tasks, tid)
				}
			}
		}
	}
	return nil
}

// memCompanies implements CompanyStore.
type memCompanies struct{ *memDB }

func (r memCompanies) Create(ctx context.Context, c *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.companies {
		if existing.Name == c.Name || existing.ABN == c.ABN {
			return apperr.Duplicatef("Company already registered")
		}
	}
	c.ID = r.next()
	r.companies[c.ID] = *c
	return nil
}

func (r memCompanies) GetByID(ctx context.Context, id int) (models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.companies[id]
	if !ok {
		return models.Company{}, notFound("Company")
	}
	return c, nil
}

func (r memCompanies) List(ctx context.Context) ([]models.Company, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Company{}
	for _, c := range r.companies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memCompanies) ListNames(ctx context.Context) ([]models.CompanyName, error) {
	all, _ := r.List(ctx)
	out := make([]models.CompanyName, 0, len(all))
	for _, c := range all {
		out = append(out, models.CompanyName{ID: c.ID, Name: c.Name})
	}
	return out, nil
}

func (r memCompanies) Update(ctx context.Context, c *models.Company) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[c.ID]; !ok {
		return notFound("Company")
	}
	r.companies[c.ID] = *c
	return nil
}

func (r memCompanies) TaskIDs(ctx context.Context, companyID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int{}
	for _, t := range r.tasks {
		if r.staff[t.StaffID].CompanyID == companyID || r.clients[t.ClientID].CompanyID == companyID {
			ids = append(ids, t.ID)
		}
	}
	sort.Ints(ids)
	return ids, nil
}

func (r memCompanies) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.companies[id]; !ok {
		return notFound("Company")
	}
	for sid, s := range r.staff {
		if s.CompanyID == id {
			delete(r.accounts, s.UserID)
			delete(r.staff, sid)
		}
	}
	for cid, c := range r.clients {
		if c.CompanyID == id {
			delete(r.accounts, c.UserID)
			delete(r.clients, cid)
		}
	}
	for tid, t := range r.tasks {
		_, staffOK := r.staff[t.StaffID]
		_, clientOK := r.clients[t.ClientID]
		if !staffOK || !clientOK {
			delete(r.tasks, tid)
		}
	}
	delete(r.companies, id)
	return nil
}

// memMedia implements MediaStore.
type memMedia struct{ *memDB }

func (r memMedia) Insert(ctx context.Context, m *models.Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[m.TaskID]; !ok {
		return notFound("Task")
	}
	m.ID = r.next()
	r.media[m.ID] = *m
	return nil
}

func (r memMedia) Get(ctx context.Context, id int) (models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.media[id]
	if !ok {
		return models.Media{}, notFound("Media")
	}
	return m, nil
}

func (r memMedia) ListByTask(ctx context.Context, taskID int) ([]models.Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Media{}
	for _, m := range r.media {
		if m.TaskID == taskID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memMedia) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.media[id]; !ok {
		return notFound("Media")
	}
	delete(r.media, id)
	return nil
}

// memFiles implements FileStore.
type memFiles struct {
	mu        sync.Mutex
	files     map[string][]byte
	removeErr error
}

func newMemFiles() *memFiles { return &memFiles{files: map[string][]byte{}} }

func (f *memFiles) Save(dir, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rel := dir + "/" + name
	f.files[rel] = data
	return rel, nil
}

func (f *memFiles) Remove(rel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.removeErr != nil {
		return f.removeErr
	}
	if _, ok := f.files[rel]; !ok {
		return &fs.PathError{Op: "remove", Path: rel, Err: fs.ErrNotExist}
	}
	delete(f.files, rel)
	return nil
}

func (f *memFiles) RemoveAll(dir string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for rel := range f.files {
		if strings.HasPrefix(rel, dir+"/") {
			delete(f.files, rel)
		}
	}
	return nil
}

func (f *memFiles) has(rel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[rel]
	return ok
}

func (f *memFiles) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.files)
}

// mapCache implements cache.TaskCache.
type mapCache struct {
	mu      sync.Mutex
	entries map[int]models.TaskDetails
}

func newMapCache() *mapCache { return &mapCache{entries: map[int]models.TaskDetails{}} }

func (c *mapCache) Get(ctx context.Context, id int) (models.TaskDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.entries[id]
	return d, ok
}

func (c *mapCache) Set(ctx context.Context, d models.TaskDetails) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[d.ID] = d
}

func (c *mapCache) Invalidate(ctx context.Context, ids ...int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.entries, id)
	}
}

// recorder implements EventPublisher.
type recorder struct {
	mu     sync.Mutex
	events []models.TaskEvent
}

func (r *recorder) Publish(ev models.TaskEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []models.TaskEventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.TaskEventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

// reverseCipher is a reversible stand-in for crypto.Cipher.
type reverseCipher struct{}

func (reverseCipher) Encrypt(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	return "enc:" + reverse(s), nil
}

func (reverseCipher) Decrypt(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	raw, ok := strings.CutPrefix(s, "enc:")
	if !ok {
		return "", fmt.Errorf("not sealed: %q", s)
	}
	return reverse(raw), nil
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
