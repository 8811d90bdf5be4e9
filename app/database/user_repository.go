package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

var _ UserRepository = (*UserRepositoryImpl)(nil)

type UserRepositoryImpl struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepositoryImpl {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) UpsertUser(username, webhook string, interests []string) error {
	interestsJSON, err := json.Marshal(interests)
	if err != nil {
		return fmt.Errorf("failed to encode interests: %w", err)
	}

	now := time.Now().UTC()

	_, err = r.db.Exec(`
		INSERT INTO users (username, webhook, interests, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (username) DO UPDATE SET
			webhook = excluded.webhook,
			interests = excluded.interests,
			updated_at = excluded.updated_at
	`, username, webhook, string(interestsJSON), now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetUser(username string) (*User, error) {
	row := r.db.QueryRow(`
		SELECT id, username, webhook, interests, created_at, updated_at
		FROM users
		WHERE username = ?
	`, username)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *UserRepositoryImpl) ListUsers() ([]User, error) {
	rows, err := r.db.Query(`
		SELECT id, username, webhook, interests, created_at, updated_at
		FROM users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var interests string

	err := row.Scan(&user.ID, &user.Username, &user.Webhook, &interests,
		&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}

	if interests != "" {
		if err := json.Unmarshal([]byte(interests), &user.Interests); err != nil {
			return nil, fmt.Errorf("failed to decode interests: %w", err)
		}
	}

	return &user, nil
}
