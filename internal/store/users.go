package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/edgarflat/internal/model"
)

// SaveUser creates or updates a user
func (s *Store) SaveUser(ctx context.Context, u model.User) error {
	if err := u.Validate(); err != nil {
		return err
	}
	query := s.db.Rebind(`INSERT INTO users (id, first_name, last_name, email) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET first_name = excluded.first_name, last_name = excluded.last_name, email = excluded.email`)
	if _, err := s.db.ExecContext(ctx, query, u.ID, u.FirstName, u.LastName, u.Email); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	s.logger.Debug("user saved", zap.String("user", u.ID))
	return nil
}

// User loads a user by id
func (s *Store) User(ctx context.Context, id string) (model.User, error) {
	if err := model.ValidateUserID(id); err != nil {
		return model.User{}, err
	}
	var u model.User
	query := s.db.Rebind(`SELECT id, first_name, last_name, email FROM users WHERE id = ?`)
	err := s.db.GetContext(ctx, &u, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("%w: %s", model.ErrUnknownUser, id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Users lists every user by id
func (s *Store) Users(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, `SELECT id, first_name, last_name, email FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
