// Command createsuperuser creates a staff account with superuser rights.
//
//	createsuperuser -email admin@example.com
//
// The password is prompted for on a terminal, or read from the first line of
// stdin otherwise. The database comes from DATABASE_URL (or .env) unless -d
// is given.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/coreybb/recipes/auth"
	"github.com/coreybb/recipes/config"
	"github.com/coreybb/recipes/datastore"
	"github.com/coreybb/recipes/logging"
	"github.com/coreybb/recipes/migrations"
	"github.com/coreybb/recipes/services"
	"golang.org/x/term"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "createsuperuser: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin *os.File, out io.Writer) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)
	fs.SetOutput(out)
	email := fs.String("email", "", "email address of the new superuser")
	dsn := fs.String("d", "", "database DSN (defaults to DATABASE_URL)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*email) == "" {
		return errors.New("-email is required")
	}

	cfg, err := config.Load(nil)
	if err != nil {
		return err
	}
	if *dsn != "" {
		cfg.DatabaseDSN = *dsn
	}

	password, err := readPassword(stdin, out)
	if err != nil {
		return err
	}

	db, err := datastore.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migrations.Up(ctx, db); err != nil {
		return err
	}

	logger := logging.NewSlogLogger(logging.NewJSONSlog(os.Stderr, cfg.LogLevel))
	svc := services.NewUserService(
		datastore.NewUserRepository(db),
		auth.NewTokenManager(cfg.SecretKey, cfg.TokenTTL),
		logger,
	)

	user, err := svc.CreateSuperuser(ctx, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Superuser %s created (id %d).\n", user.Email, user.ID)
	return nil
}

var errEmptyPassword = errors.New("password must not be empty")

// readPassword prompts twice on a terminal and insists both entries match.
// Without a terminal the first line of stdin is used. An empty password is
// rejected either way.
func readPassword(stdin *os.File, out io.Writer) (string, error) {
	fd := int(stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read password: %w", err)
		}
		pw := strings.TrimRight(line, "\r\n")
		if pw == "" {
			return "", errEmptyPassword
		}
		return pw, nil
	}

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	fmt.Fprint(out, "Password (again): ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	if len(first) == 0 {
		return "", errEmptyPassword
	}
	return string(first), nil
}
