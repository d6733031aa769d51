// Package app implements the application core: account lifecycle, notes,
// activities, plans, friends, the admin surface and the AI/video gateways.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"realsociety/internal/ai"
	"realsociety/internal/auth"
	"realsociety/internal/domain"
	"realsociety/internal/storage"
	"realsociety/internal/store"
	"realsociety/internal/token"
	"realsociety/internal/util"
	"realsociety/internal/youtube"
)

// Plan-derived quotas, applied at read time.
const (
	FreeAIQuota      = 10
	freeStorageLimit = 500 * 1024 * 1024
	paidStorageLimit = 10 * 1024 * 1024 * 1024

	// UnlimitedAI marks plans without an AI-call quota.
	UnlimitedAI = -1
)

// ActionAIChat is the activity action that counts against the AI quota.
const ActionAIChat = "AI Chat"

// Config wires the application's dependencies. Store takes precedence over
// DatabaseURL; Photos and the gateway clients are optional.
type Config struct {
	DatabaseURL string
	Store       store.Store
	Tokens      *token.Issuer
	Assistant   *ai.Assistant
	Videos      *youtube.Client
	Photos      storage.ObjectStore
}

// App is the core application service.
type App struct {
	store     store.Store
	tokens    *token.Issuer
	assistant *ai.Assistant
	videos    *youtube.Client
	photos    storage.ObjectStore
}

// New constructs the application.
func New(cfg Config) (*App, error) {
	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token issuer required")
	}
	assistant := cfg.Assistant
	if assistant == nil {
		assistant = ai.NewAssistant(&ai.MockProvider{})
	}
	videos := cfg.Videos
	if videos == nil {
		videos = youtube.NewClient("")
	}
	return &App{
		store:     dataStore,
		tokens:    cfg.Tokens,
		assistant: assistant,
		videos:    videos,
		photos:    cfg.Photos,
	}, nil
}

// SignUp registers a new user with role user and a signed token.
func (a *App) SignUp(email, password, name string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || name == "" {
		return domain.User{}, "", ErrSignupFieldsRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", ErrSignupFieldsRequired
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrEmailAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user, err := a.store.CreateUser(domain.User{
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         domain.RoleUser,
		Plan:         domain.PlanFree,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return domain.User{}, "", ErrEmailAlreadyExists
		}
		return domain.User{}, "", fmt.Errorf("create user: %w", err)
	}
	signed, err := a.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, signed, nil
}

// Login verifies credentials and issues a token carrying the stored role.
func (a *App) Login(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("lookup user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	signed, err := a.tokens.Issue(user)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue token: %w", err)
	}
	return user, signed, nil
}

// Profile returns the caller's user row.
func (a *App) Profile(userID uint) (domain.User, error) {
	user, ok, err := a.store.GetUserByID(userID)
	if err != nil {
		return domain.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrUserNotFound
	}
	return user, nil
}

// UpdateProfile overwrites the editable profile fields.
func (a *App) UpdateProfile(userID uint, update store.ProfileUpdate) error {
	if _, err := a.Profile(userID); err != nil {
		return err
	}
	if err := a.store.UpdateUserProfile(userID, update); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// UploadPhoto stores a profile photo object and records its URL.
func (a *App) UploadPhoto(ctx context.Context, userID uint, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if a.photos == nil {
		return "", ErrPhotoStorageUnavailable
	}
	user, err := a.Profile(userID)
	if err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	key := "photos/" + uuid.NewString() + ext
	if err := a.photos.Put(ctx, key, r, size, contentType); err != nil {
		return "", fmt.Errorf("store photo: %w", err)
	}
	url := a.photos.PublicURL(key)
	if err := a.store.SetUserPhoto(userID, url); err != nil {
		return "", fmt.Errorf("record photo: %w", err)
	}
	// Best effort: drop the replaced object so the bucket does not
	// accumulate orphaned photos.
	if oldKey, ok := a.photoObjectKey(user.ProfilePhoto); ok {
		if err := a.photos.Delete(ctx, oldKey); err != nil {
			util.LoggerFromContext(ctx).Warn("delete replaced photo", "key", oldKey, "error", err)
		}
	}
	return url, nil
}

// photoObjectKey recovers the bucket key from a photo URL this service
// issued. External URLs (or an empty photo) yield ok=false.
func (a *App) photoObjectKey(url string) (string, bool) {
	if url == "" {
		return "", false
	}
	base := a.photos.PublicURL("")
	key := strings.TrimPrefix(url, base)
	if key == url || key == "" {
		return "", false
	}
	return key, true
}

// UpgradePlan overwrites the subscription plan. No payment validation exists.
func (a *App) UpgradePlan(userID uint, rawPlan string) (domain.Plan, error) {
	plan, ok := domain.ParsePlan(rawPlan)
	if !ok {
		return "", ErrUnknownPlan
	}
	if _, err := a.Profile(userID); err != nil {
		return "", err
	}
	if err := a.store.SetUserPlan(userID, plan); err != nil {
		return "", fmt.Errorf("set plan: %w", err)
	}
	return plan, nil
}

// UsageLimits are the caller's plan-derived quotas.
type UsageLimits struct {
	AI      int   `json:"ai"`
	Storage int64 `json:"storage"`
}

// UsageSummary reports consumption against plan limits. Storage counts one
// unit per note content character.
type UsageSummary struct {
	Plan        domain.Plan `json:"plan"`
	AIUsage     int         `json:"aiUsage"`
	StorageUsed int64       `json:"storageUsed"`
	Limits      UsageLimits `json:"limits"`
}

// Usage aggregates the caller's usage summary.
func (a *App) Usage(userID uint) (UsageSummary, error) {
	user, err := a.Profile(userID)
	if err != nil {
		return UsageSummary{}, err
	}
	used, err := a.store.NoteStorageUsed(userID)
	if err != nil {
		return UsageSummary{}, fmt.Errorf("storage used: %w", err)
	}
	limits := UsageLimits{AI: UnlimitedAI, Storage: paidStorageLimit}
	if user.Plan == domain.PlanFree {
		limits = UsageLimits{AI: FreeAIQuota, Storage: freeStorageLimit}
	}
	return UsageSummary{
		Plan:        user.Plan,
		AIUsage:     user.AIUsageCount,
		StorageUsed: used,
		Limits:      limits,
	}, nil
}

// LogActivity appends to the activity log; the AI-chat action also counts
// against the caller's AI usage.
func (a *App) LogActivity(userID uint, action, details string, metadata map[string]string) (domain.Activity, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return domain.Activity{}, ErrActionRequired
	}
	activity, err := a.store.AppendActivity(domain.Activity{
		UserID:    userID,
		Action:    action,
		Details:   details,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}, action == ActionAIChat)
	if err != nil {
		return domain.Activity{}, fmt.Errorf("append activity: %w", err)
	}
	return activity, nil
}

// RecentActivities returns the caller's latest activity rows.
func (a *App) RecentActivities(userID uint) ([]domain.Activity, error) {
	activities, err := a.store.ListActivitiesByUser(userID, 50)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// Videos returns the caller's channel feed. Without a channel reference the
// feed is empty; without an API credential, or when the upstream call fails,
// the fixed mock feed is served instead.
func (a *App) Videos(ctx context.Context, userID uint) ([]youtube.Video, bool, error) {
	user, err := a.Profile(userID)
	if err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(user.YouTubeChannel) == "" {
		return []youtube.Video{}, false, nil
	}
	if !a.videos.Enabled() {
		return youtube.MockVideos(), true, nil
	}
	videos, err := a.videos.ListChannelVideos(ctx, user.YouTubeChannel)
	if err != nil {
		// Upstream failures degrade to the mock feed, never to a hard error.
		return youtube.MockVideos(), true, nil
	}
	if videos == nil {
		videos = []youtube.Video{}
	}
	return videos, false, nil
}
