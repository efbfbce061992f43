package auth

import (
	"github.com/JaimeStill/stockcast/pkg/query"
	"github.com/JaimeStill/stockcast/pkg/repository"
)

const insertUser = `
	INSERT INTO users(username, password_hash, name, role)
	VALUES ($1, $2, $3, $4)
	RETURNING id, username, name, role`

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("username", "Username").
	Project("name", "Name").
	Project("role", "Role").
	Project("password_hash", "PasswordHash")

func scanAccount(s repository.Scanner) (account, error) {
	var (
		a    account
		hash string
	)
	err := s.Scan(&a.ID, &a.Username, &a.Name, &a.Role, &hash)
	a.hash = []byte(hash)
	return a, err
}

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Username, &u.Name, &u.Role)
	return u, err
}
