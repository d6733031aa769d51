package app

import (
	"fmt"
	"strings"
	"time"

	"realsociety/internal/auth"
	"realsociety/internal/domain"
	"realsociety/internal/secret"
)

// CreateNoteInput is the note creation payload.
type CreateNoteInput struct {
	Title    string
	Content  string
	Secret   bool
	Password string
	Kind     string
}

// CreateNote stores a note for the caller. Secret notes with a password are
// encrypted at rest; the password itself is stored only as a bcrypt hash.
func (a *App) CreateNote(userID uint, in CreateNoteInput) (domain.Note, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" || in.Content == "" {
		return domain.Note{}, ErrTitleAndContentRequired
	}
	kind := domain.NoteKind(in.Kind)
	switch kind {
	case domain.KindNote, domain.KindTodo, domain.KindFile:
	default:
		kind = domain.KindNote
	}
	note := domain.Note{
		UserID:    userID,
		Title:     title,
		Content:   in.Content,
		Secret:    in.Secret,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if in.Secret && in.Password != "" {
		sealed, err := secret.Seal(in.Password, in.Content)
		if err != nil {
			return domain.Note{}, fmt.Errorf("seal note content: %w", err)
		}
		passwordHash, err := auth.HashPassword(in.Password)
		if err != nil {
			return domain.Note{}, fmt.Errorf("hash note password: %w", err)
		}
		note.Content = sealed
		note.SecretPassword = passwordHash
	}
	created, err := a.store.CreateNote(note)
	if err != nil {
		return domain.Note{}, fmt.Errorf("create note: %w", err)
	}
	return redactNote(created), nil
}

// ListNotes returns the caller's notes, newest first. Locked content is
// withheld.
func (a *App) ListNotes(userID uint) ([]domain.Note, error) {
	notes, err := a.store.ListNotesByOwner(userID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	res := make([]domain.Note, 0, len(notes))
	for _, n := range notes {
		res = append(res, redactNote(n))
	}
	return res, nil
}

// UnlockNote returns the decrypted content of a locked note.
func (a *App) UnlockNote(userID, noteID uint, password string) (string, error) {
	note, err := a.ownedNote(userID, noteID)
	if err != nil {
		return "", err
	}
	if !note.Secret || note.SecretPassword == "" {
		return "", ErrNoteNotLocked
	}
	if !auth.CheckPassword(password, note.SecretPassword) {
		return "", ErrWrongNotePassword
	}
	content, err := secret.Open(password, note.Content)
	if err != nil {
		return "", ErrWrongNotePassword
	}
	return content, nil
}

// DeleteNote removes a note the caller owns. A missing note and a note owned
// by another user are reported distinctly.
func (a *App) DeleteNote(userID, noteID uint) error {
	if _, err := a.ownedNote(userID, noteID); err != nil {
		return err
	}
	if err := a.store.DeleteNote(noteID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

func (a *App) ownedNote(userID, noteID uint) (domain.Note, error) {
	note, ok, err := a.store.GetNote(noteID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("lookup note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNoteNotFound
	}
	if note.UserID != userID {
		return domain.Note{}, ErrNotNoteOwner
	}
	return note, nil
}

func redactNote(n domain.Note) domain.Note {
	if n.Secret && n.SecretPassword != "" {
		n.Content = ""
		n.Locked = true
	}
	n.SecretPassword = ""
	return n
}
