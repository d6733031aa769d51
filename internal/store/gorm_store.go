package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"realsociety/internal/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and applies the versioned migration list.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLog,
		// Driver errors become gorm sentinels (gorm.ErrDuplicatedKey etc).
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// CreateUser inserts a user and returns it with the assigned ID.
func (s *GormStore) CreateUser(u domain.User) (domain.User, error) {
	model := userToModel(u)
	if err := s.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.User{}, ErrDuplicateEmail
		}
		return domain.User{}, err
	}
	return userFromModel(model), nil
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id uint) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// UpdateUserProfile overwrites the editable profile fields.
func (s *GormStore) UpdateUserProfile(id uint, update ProfileUpdate) error {
	return s.db.Model(&UserModel{}).Where("id = ?", id).Updates(map[string]any{
		"name":            update.Name,
		"bio":             update.Bio,
		"profile_photo":   update.ProfilePhoto,
		"youtube_channel": update.YouTubeChannel,
	}).Error
}

// SetUserPhoto stores the uploaded photo URL.
func (s *GormStore) SetUserPhoto(id uint, url string) error {
	return s.db.Model(&UserModel{}).Where("id = ?", id).
		Update("profile_photo", url).Error
}

// SetUserPlan overwrites the subscription plan.
func (s *GormStore) SetUserPlan(id uint, plan domain.Plan) error {
	return s.db.Model(&UserModel{}).Where("id = ?", id).
		Update("plan", string(plan)).Error
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// DeleteUser removes a user by ID. Owned notes and activities are intentionally
// left in place.
func (s *GormStore) DeleteUser(id uint) (bool, error) {
	res := s.db.Delete(&UserModel{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// CreateNote inserts a note and returns it with the assigned ID.
func (s *GormStore) CreateNote(n domain.Note) (domain.Note, error) {
	model := noteToModel(n)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Note{}, err
	}
	return noteFromModel(model), nil
}

// GetNote retrieves a note regardless of owner.
func (s *GormStore) GetNote(id uint) (domain.Note, bool, error) {
	var model NoteModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Note{}, false, nil
		}
		return domain.Note{}, false, err
	}
	return noteFromModel(model), true, nil
}

// ListNotesByOwner returns the owner's notes, newest first.
func (s *GormStore) ListNotesByOwner(userID uint) ([]domain.Note, error) {
	var models []NoteModel
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Note, 0, len(models))
	for _, m := range models {
		res = append(res, noteFromModel(m))
	}
	return res, nil
}

// DeleteNote removes a note by ID.
func (s *GormStore) DeleteNote(id uint) error {
	return s.db.Delete(&NoteModel{}, "id = ?", id).Error
}

// NoteStorageUsed sums note content length for the owner, one unit per
// character.
func (s *GormStore) NoteStorageUsed(userID uint) (int64, error) {
	var total int64
	if err := s.db.Model(&NoteModel{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(LENGTH(content)), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// AppendActivity records an activity; AI interactions also bump the owner's
// usage counter inside the same transaction.
func (s *GormStore) AppendActivity(a domain.Activity, countsAIUse bool) (domain.Activity, error) {
	model := activityToModel(a)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		if countsAIUse {
			return tx.Model(&UserModel{}).Where("id = ?", a.UserID).
				Update("ai_usage_count", gorm.Expr("ai_usage_count + 1")).Error
		}
		return nil
	})
	if err != nil {
		return domain.Activity{}, err
	}
	return activityFromModel(model), nil
}

// ListActivitiesByUser returns the user's recent activities, newest first.
func (s *GormStore) ListActivitiesByUser(userID uint, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	var models []ActivityModel
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Activity, 0, len(models))
	for _, m := range models {
		res = append(res, activityFromModel(m))
	}
	return res, nil
}

// CreateFriendLink inserts a pending friend request.
func (s *GormStore) CreateFriendLink(l domain.FriendLink) (domain.FriendLink, error) {
	model := friendLinkToModel(l)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.FriendLink{}, err
	}
	return friendLinkFromModel(model), nil
}

// GetFriendLink returns one link by ID.
func (s *GormStore) GetFriendLink(id uint) (domain.FriendLink, bool, error) {
	var model FriendLinkModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.FriendLink{}, false, nil
		}
		return domain.FriendLink{}, false, err
	}
	return friendLinkFromModel(model), true, nil
}

// FindFriendLinkBetween returns a link between two users in either direction.
func (s *GormStore) FindFriendLinkBetween(userID, friendID uint) (domain.FriendLink, bool, error) {
	var model FriendLinkModel
	err := s.db.
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.FriendLink{}, false, nil
		}
		return domain.FriendLink{}, false, err
	}
	return friendLinkFromModel(model), true, nil
}

// SetFriendLinkStatus transitions a link's status.
func (s *GormStore) SetFriendLinkStatus(id uint, status domain.FriendStatus) error {
	return s.db.Model(&FriendLinkModel{}).Where("id = ?", id).
		Update("status", string(status)).Error
}

// ListFriendLinksByUser returns links where the user is on either side.
func (s *GormStore) ListFriendLinksByUser(userID uint) ([]domain.FriendLink, error) {
	var models []FriendLinkModel
	if err := s.db.
		Where("user_id = ? OR friend_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.FriendLink, 0, len(models))
	for _, m := range models {
		res = append(res, friendLinkFromModel(m))
	}
	return res, nil
}

// Counts returns the admin stats row counts.
func (s *GormStore) Counts() (domain.Stats, error) {
	var stats domain.Stats
	if err := s.db.Model(&UserModel{}).Count(&stats.Users).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := s.db.Model(&NoteModel{}).Count(&stats.Notes).Error; err != nil {
		return domain.Stats{}, err
	}
	if err := s.db.Model(&ActivityModel{}).Count(&stats.Activities).Error; err != nil {
		return domain.Stats{}, err
	}
	return stats, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:             u.ID,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Name:           u.Name,
		Bio:            u.Bio,
		ProfilePhoto:   u.ProfilePhoto,
		Role:           string(u.Role),
		Plan:           string(u.Plan),
		AIUsageCount:   u.AIUsageCount,
		YouTubeChannel: u.YouTubeChannel,
		CreatedAt:      u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	plan := domain.Plan(m.Plan)
	if plan == "" {
		plan = domain.PlanFree
	}
	role := domain.UserRole(m.Role)
	if role == "" {
		role = domain.RoleUser
	}
	return domain.User{
		ID:             m.ID,
		Email:          m.Email,
		PasswordHash:   m.PasswordHash,
		Name:           m.Name,
		Bio:            m.Bio,
		ProfilePhoto:   m.ProfilePhoto,
		Role:           role,
		Plan:           plan,
		AIUsageCount:   m.AIUsageCount,
		YouTubeChannel: m.YouTubeChannel,
		CreatedAt:      m.CreatedAt,
	}
}

func noteToModel(n domain.Note) NoteModel {
	return NoteModel{
		ID:             n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Content:        n.Content,
		IsSecret:       n.Secret,
		SecretPassword: n.SecretPassword,
		Kind:           string(n.Kind),
		CreatedAt:      n.CreatedAt,
	}
}

func noteFromModel(m NoteModel) domain.Note {
	kind := domain.NoteKind(m.Kind)
	if kind == "" {
		kind = domain.KindNote
	}
	return domain.Note{
		ID:             m.ID,
		UserID:         m.UserID,
		Title:          m.Title,
		Content:        m.Content,
		Secret:         m.IsSecret,
		SecretPassword: m.SecretPassword,
		Kind:           kind,
		CreatedAt:      m.CreatedAt,
	}
}

func activityToModel(a domain.Activity) ActivityModel {
	var meta []byte
	if len(a.Metadata) > 0 {
		meta, _ = json.Marshal(a.Metadata)
	}
	return ActivityModel{
		ID:        a.ID,
		UserID:    a.UserID,
		Action:    a.Action,
		Details:   a.Details,
		Metadata:  datatypes.JSON(meta),
		CreatedAt: a.CreatedAt,
	}
}

func activityFromModel(m ActivityModel) domain.Activity {
	var meta map[string]string
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal([]byte(m.Metadata), &meta)
	}
	return domain.Activity{
		ID:        m.ID,
		UserID:    m.UserID,
		Action:    m.Action,
		Details:   m.Details,
		Metadata:  meta,
		CreatedAt: m.CreatedAt,
	}
}

func friendLinkToModel(l domain.FriendLink) FriendLinkModel {
	return FriendLinkModel{
		ID:        l.ID,
		UserID:    l.UserID,
		FriendID:  l.FriendID,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
	}
}

func friendLinkFromModel(m FriendLinkModel) domain.FriendLink {
	status := domain.FriendStatus(m.Status)
	if status == "" {
		status = domain.FriendPending
	}
	return domain.FriendLink{
		ID:        m.ID,
		UserID:    m.UserID,
		FriendID:  m.FriendID,
		Status:    status,
		CreatedAt: m.CreatedAt,
	}
}
