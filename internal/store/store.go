package store

import (
	"errors"

	"realsociety/internal/domain"
)

// ErrDuplicateEmail is returned by CreateUser when the email is already
// taken. Both implementations surface it, so callers can rely on
// errors.Is even when a concurrent signup slips past the pre-check.
var ErrDuplicateEmail = errors.New("email already exists")

// ProfileUpdate carries the whole-field profile overwrite.
type ProfileUpdate struct {
	Name           string
	Bio            string
	ProfilePhoto   string
	YouTubeChannel string
}

// Store is the persistence boundary used by the application core.
type Store interface {
	// users
	CreateUser(u domain.User) (domain.User, error)
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id uint) (domain.User, bool, error)
	UpdateUserProfile(id uint, update ProfileUpdate) error
	SetUserPhoto(id uint, url string) error
	SetUserPlan(id uint, plan domain.Plan) error
	ListUsers() ([]domain.User, error)
	DeleteUser(id uint) (bool, error)

	// notes
	CreateNote(n domain.Note) (domain.Note, error)
	GetNote(id uint) (domain.Note, bool, error)
	ListNotesByOwner(userID uint) ([]domain.Note, error)
	DeleteNote(id uint) error
	NoteStorageUsed(userID uint) (int64, error)

	// activities; countsAIUse increments the owner's AI usage counter in the
	// same transaction as the insert
	AppendActivity(a domain.Activity, countsAIUse bool) (domain.Activity, error)
	ListActivitiesByUser(userID uint, limit int) ([]domain.Activity, error)

	// friends
	CreateFriendLink(l domain.FriendLink) (domain.FriendLink, error)
	GetFriendLink(id uint) (domain.FriendLink, bool, error)
	FindFriendLinkBetween(userID, friendID uint) (domain.FriendLink, bool, error)
	SetFriendLinkStatus(id uint, status domain.FriendStatus) error
	ListFriendLinksByUser(userID uint) ([]domain.FriendLink, error)

	// admin
	Counts() (domain.Stats, error)
}
