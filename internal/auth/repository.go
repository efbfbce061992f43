package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/JaimeStill/stockcast/pkg/database"
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
)

// DefaultCost is the bcrypt work factor used for new hashes.
const DefaultCost = bcrypt.DefaultCost

type repo struct {
	db     database.System
	cost   int
	logger *slog.Logger

	// dummy is compared against for unknown usernames so both rejection
	// paths pay the same bcrypt cost.
	dummy []byte
}

// New creates an auth repository implementing the System interface.
// A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func New(db database.System, cost int, logger *slog.Logger) System {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("stockcast"), cost)
	return &repo{
		db:     db,
		cost:   cost,
		logger: logger.With("system", "auth"),
		dummy:  dummy,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	q, args := query.NewBuilder(projection).
		WhereEquals("Username", username).
		Build()

	acct, err := repository.QueryOne(ctx, db, q, args, scanAccount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			bcrypt.CompareHashAndPassword(r.dummy, []byte(password))
			r.logger.Warn("login failed", "username", username)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword(acct.hash, []byte(password)); err != nil {
		r.logger.Warn("login failed", "username", username)
		return nil, ErrInvalidCredentials
	}

	r.logger.Info("login succeeded", "username", username, "role", acct.Role)
	return &acct.User, nil
}

func (r *repo) Create(ctx context.Context, cmd CreateCommand) (*User, error) {
	username := strings.TrimSpace(cmd.Username)
	if username == "" || cmd.Password == "" {
		return nil, ErrMissingCredentials
	}
	role := cmd.Role
	switch role {
	case "":
		role = RoleViewer
	case RoleAdmin, RoleViewer:
	default:
		return nil, ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), r.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	db, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}

	u, err := repository.WithTx(ctx, db, func(tx *sql.Tx) (User, error) {
		return repository.QueryOne(ctx, tx, insertUser, []any{username, string(hash), cmd.Name, role}, scanUser)
	})
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", repository.MapError(err, err, ErrDuplicateUser))
	}

	r.logger.Info("user created", "username", u.Username, "role", u.Role)
	return &u, nil
}
