package app

import (
	"fmt"
	"strings"
	"time"

	"realsociety/internal/domain"
)

// UserSummary is the public view of another account.
type UserSummary struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	ProfilePhoto string `json:"profile_photo,omitempty"`
}

// FriendRequestView pairs a pending link with the counterpart's summary.
type FriendRequestView struct {
	ID        uint        `json:"id"`
	User      UserSummary `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
}

// FriendsView is the caller's full friendship picture.
type FriendsView struct {
	Friends  []UserSummary       `json:"friends"`
	Incoming []FriendRequestView `json:"incoming"`
	Outgoing []FriendRequestView `json:"outgoing"`
}

func summarize(u domain.User) UserSummary {
	return UserSummary{ID: u.ID, Email: u.Email, Name: u.Name, ProfilePhoto: u.ProfilePhoto}
}

// RequestFriend creates a pending friend request toward the account with the
// given email.
func (a *App) RequestFriend(userID uint, email string) (domain.FriendLink, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	target, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.FriendLink{}, fmt.Errorf("lookup friend target: %w", err)
	}
	if !ok {
		return domain.FriendLink{}, ErrUserNotFound
	}
	if target.ID == userID {
		return domain.FriendLink{}, ErrSelfFriend
	}
	if _, exists, err := a.store.FindFriendLinkBetween(userID, target.ID); err != nil {
		return domain.FriendLink{}, fmt.Errorf("check friend link: %w", err)
	} else if exists {
		return domain.FriendLink{}, ErrFriendLinkExists
	}
	link, err := a.store.CreateFriendLink(domain.FriendLink{
		UserID:    userID,
		FriendID:  target.ID,
		Status:    domain.FriendPending,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.FriendLink{}, fmt.Errorf("create friend link: %w", err)
	}
	return link, nil
}

// AcceptFriend marks a pending request accepted. Only the request's target may
// accept it.
func (a *App) AcceptFriend(userID, linkID uint) (domain.FriendLink, error) {
	link, ok, err := a.store.GetFriendLink(linkID)
	if err != nil {
		return domain.FriendLink{}, fmt.Errorf("lookup friend link: %w", err)
	}
	if !ok {
		return domain.FriendLink{}, ErrFriendLinkNotFound
	}
	if link.FriendID != userID {
		return domain.FriendLink{}, ErrNotFriendTarget
	}
	if link.Status != domain.FriendPending {
		return domain.FriendLink{}, ErrFriendLinkNotPending
	}
	if err := a.store.SetFriendLinkStatus(link.ID, domain.FriendAccepted); err != nil {
		return domain.FriendLink{}, fmt.Errorf("accept friend link: %w", err)
	}
	link.Status = domain.FriendAccepted
	return link, nil
}

// Friends returns accepted friends plus pending requests in both directions.
func (a *App) Friends(userID uint) (FriendsView, error) {
	links, err := a.store.ListFriendLinksByUser(userID)
	if err != nil {
		return FriendsView{}, fmt.Errorf("list friend links: %w", err)
	}
	view := FriendsView{
		Friends:  []UserSummary{},
		Incoming: []FriendRequestView{},
		Outgoing: []FriendRequestView{},
	}
	for _, link := range links {
		otherID := link.FriendID
		if otherID == userID {
			otherID = link.UserID
		}
		other, ok, err := a.store.GetUserByID(otherID)
		if err != nil {
			return FriendsView{}, fmt.Errorf("lookup friend: %w", err)
		}
		if !ok {
			// counterpart account was deleted; skip the dangling link
			continue
		}
		switch {
		case link.Status == domain.FriendAccepted:
			view.Friends = append(view.Friends, summarize(other))
		case link.FriendID == userID:
			view.Incoming = append(view.Incoming, FriendRequestView{ID: link.ID, User: summarize(other), CreatedAt: link.CreatedAt})
		default:
			view.Outgoing = append(view.Outgoing, FriendRequestView{ID: link.ID, User: summarize(other), CreatedAt: link.CreatedAt})
		}
	}
	return view, nil
}
