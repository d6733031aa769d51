package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not
	// match. The message is shown to end users and must not enable account
	// enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrSignupFieldsRequired = errors.New("email, password and name required")
	ErrEmailAlreadyExists   = errors.New("email already exists")

	ErrUserNotFound = errors.New("user not found")
	ErrUnknownPlan  = errors.New("unknown plan")

	ErrTitleAndContentRequired = errors.New("title and content required")
	ErrNoteNotFound            = errors.New("note not found")
	ErrNotNoteOwner            = errors.New("note belongs to another user")
	ErrNoteNotLocked           = errors.New("note is not locked")
	ErrWrongNotePassword       = errors.New("wrong note password")

	ErrActionRequired = errors.New("action required")
	ErrPromptRequired = errors.New("prompt required")
	ErrTextRequired   = errors.New("text required")

	ErrAIQuotaExceeded = errors.New("free plan AI quota exhausted")

	ErrSelfFriend           = errors.New("cannot befriend yourself")
	ErrFriendLinkExists     = errors.New("friend request already exists")
	ErrFriendLinkNotFound   = errors.New("friend request not found")
	ErrNotFriendTarget      = errors.New("friend request addressed to another user")
	ErrFriendLinkNotPending = errors.New("friend request already handled")

	ErrPhotoStorageUnavailable = errors.New("photo storage not configured")
)
