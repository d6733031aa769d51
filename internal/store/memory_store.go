package store

import (
	"sort"
	"sync"
	"time"

	"realsociety/internal/domain"
)

// MemoryStore keeps all rows in-process. It backs tests and credential-less
// local runs.
type MemoryStore struct {
	mu         sync.RWMutex
	nextID     uint
	users      map[uint]domain.User
	emails     map[string]uint
	notes      map[uint]domain.Note
	activities map[uint]domain.Activity
	friends    map[uint]domain.FriendLink
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:     1,
		users:      make(map[uint]domain.User),
		emails:     make(map[string]uint),
		notes:      make(map[uint]domain.Note),
		activities: make(map[uint]domain.Activity),
		friends:    make(map[uint]domain.FriendLink),
	}
}

func (m *MemoryStore) allocID() uint {
	id := m.nextID
	m.nextID++
	return id
}

// CreateUser inserts a user, enforcing email uniqueness.
func (m *MemoryStore) CreateUser(u domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.emails[u.Email]; exists {
		return domain.User{}, ErrDuplicateEmail
	}
	u.ID = m.allocID()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	m.users[u.ID] = u
	m.emails[u.Email] = u.ID
	return u, nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.emails[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.emails[email]
	if !ok {
		return domain.User{}, false, nil
	}
	return m.users[id], true, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id uint) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// UpdateUserProfile overwrites the editable profile fields.
func (m *MemoryStore) UpdateUserProfile(id uint, update ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.Name = update.Name
	u.Bio = update.Bio
	u.ProfilePhoto = update.ProfilePhoto
	u.YouTubeChannel = update.YouTubeChannel
	m.users[id] = u
	return nil
}

// SetUserPhoto stores the uploaded photo URL.
func (m *MemoryStore) SetUserPhoto(id uint, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.ProfilePhoto = url
		m.users[id] = u
	}
	return nil
}

// SetUserPlan overwrites the subscription plan.
func (m *MemoryStore) SetUserPlan(id uint, plan domain.Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		u.Plan = plan
		m.users[id] = u
	}
	return nil
}

// ListUsers returns all users ordered by creation.
func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// DeleteUser removes a user by ID without cascading to owned rows.
func (m *MemoryStore) DeleteUser(id uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return false, nil
	}
	delete(m.users, id)
	delete(m.emails, u.Email)
	return true, nil
}

// CreateNote inserts a note.
func (m *MemoryStore) CreateNote(n domain.Note) (domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n.ID = m.allocID()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	m.notes[n.ID] = n
	return n, nil
}

// GetNote retrieves a note regardless of owner.
func (m *MemoryStore) GetNote(id uint) (domain.Note, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.notes[id]
	return n, ok, nil
}

// ListNotesByOwner returns the owner's notes, newest first.
func (m *MemoryStore) ListNotesByOwner(userID uint) ([]domain.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Note, 0)
	for _, n := range m.notes {
		if n.UserID == userID {
			res = append(res, n)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

// DeleteNote removes a note by ID.
func (m *MemoryStore) DeleteNote(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.notes, id)
	return nil
}

// NoteStorageUsed sums note content length for the owner.
func (m *MemoryStore) NoteStorageUsed(userID uint) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var total int64
	for _, n := range m.notes {
		if n.UserID == userID {
			total += int64(len([]rune(n.Content)))
		}
	}
	return total, nil
}

// AppendActivity records an activity and optionally bumps the AI usage counter.
func (m *MemoryStore) AppendActivity(a domain.Activity, countsAIUse bool) (domain.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.allocID()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	m.activities[a.ID] = a
	if countsAIUse {
		if u, ok := m.users[a.UserID]; ok {
			u.AIUsageCount++
			m.users[a.UserID] = u
		}
	}
	return a, nil
}

// ListActivitiesByUser returns the user's recent activities, newest first.
func (m *MemoryStore) ListActivitiesByUser(userID uint, limit int) ([]domain.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	res := make([]domain.Activity, 0)
	for _, a := range m.activities {
		if a.UserID == userID {
			res = append(res, a)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

// CreateFriendLink inserts a pending friend request.
func (m *MemoryStore) CreateFriendLink(l domain.FriendLink) (domain.FriendLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.allocID()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	m.friends[l.ID] = l
	return l, nil
}

// GetFriendLink returns one link by ID.
func (m *MemoryStore) GetFriendLink(id uint) (domain.FriendLink, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.friends[id]
	return l, ok, nil
}

// FindFriendLinkBetween returns a link between two users in either direction.
func (m *MemoryStore) FindFriendLinkBetween(userID, friendID uint) (domain.FriendLink, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.friends {
		if (l.UserID == userID && l.FriendID == friendID) ||
			(l.UserID == friendID && l.FriendID == userID) {
			return l, true, nil
		}
	}
	return domain.FriendLink{}, false, nil
}

// SetFriendLinkStatus transitions a link's status.
func (m *MemoryStore) SetFriendLinkStatus(id uint, status domain.FriendStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.friends[id]; ok {
		l.Status = status
		m.friends[id] = l
	}
	return nil
}

// ListFriendLinksByUser returns links where the user is on either side.
func (m *MemoryStore) ListFriendLinksByUser(userID uint) ([]domain.FriendLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.FriendLink, 0)
	for _, l := range m.friends {
		if l.UserID == userID || l.FriendID == userID {
			res = append(res, l)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

// Counts returns stored row counts.
func (m *MemoryStore) Counts() (domain.Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return domain.Stats{
		Users:      int64(len(m.users)),
		Notes:      int64(len(m.notes)),
		Activities: int64(len(m.activities)),
	}, nil
}
