package app

import (
	"fmt"

	"realsociety/internal/domain"
)

// AdminListUsers returns every account.
func (a *App) AdminListUsers() ([]domain.User, error) {
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// AdminDeleteUser removes an account row. Notes and activities it owned are
// left in place.
func (a *App) AdminDeleteUser(userID uint) error {
	deleted, err := a.store.DeleteUser(userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if !deleted {
		return ErrUserNotFound
	}
	return nil
}

// Stats reports stored row counts.
func (a *App) Stats() (domain.Stats, error) {
	stats, err := a.store.Counts()
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count rows: %w", err)
	}
	return stats, nil
}
