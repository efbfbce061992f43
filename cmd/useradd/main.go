// Command useradd provisions an operator account for the login endpoint.
// The password is read from STOCKCAST_USER_PASSWORD, or from the first line
// of stdin when that variable is unset.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/JaimeStill/stockcast/internal/auth"
	"github.com/JaimeStill/stockcast/internal/config"
	"github.com/JaimeStill/stockcast/pkg/database"
)

const envPassword = "STOCKCAST_USER_PASSWORD"

func main() {
	os.Exit(run())
}

func run() int {
	var (
		username = flag.String("username", "", "Login name (required)")
		name     = flag.String("name", "", "Display name")
		role     = flag.String("role", auth.RoleViewer, "Account role: admin or viewer")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Println("load .env failed:", err)
		return 1
	}

	password, err := readPassword(os.Stdin)
	if err != nil {
		log.Println("read password:", err)
		return 1
	}

	cfg, err := config.Load()
	if err != nil {
		log.Println("config load failed:", err)
		return 1
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		log.Println("database init failed:", err)
		return 1
	}
	defer db.Connection().Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := auth.New(db, auth.DefaultCost, logger).Create(ctx, auth.CreateCommand{
		Username: *username,
		Password: password,
		Name:     *name,
		Role:     *role,
	})
	if err != nil {
		log.Println("create user:", err)
		if auth.MapHTTPStatus(err) < 500 {
			return 2
		}
		return 1
	}

	if err := json.NewEncoder(os.Stdout).Encode(user); err != nil {
		log.Println("write user:", err)
		return 1
	}
	return 0
}

func readPassword(stdin io.Reader) (string, error) {
	if v := os.Getenv(envPassword); v != "" {
		return v, nil
	}
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("set %s or pipe the password on stdin", envPassword)
	}
	return line, nil
}
