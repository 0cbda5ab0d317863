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

	"budgetwise/internal/apperrors"
	"budgetwise/internal/auth"
	"budgetwise/internal/storage"

	"golang.org/x/term"
)

const defaultDBPath = "budgetwise.db"

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("user", "", "Username")
	email := fs.String("email", "", "Email address (required unless -delete)")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", defaultDBPath, "Database path or postgres:// URL")
	remove := fs.Bool("delete", false, "Delete the user and all of their expenses")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *username == "" || (!*remove && *email == "") {
		fmt.Fprintln(stdout, "Usage: adduser -user <username> -email <email> [-password <password>] [-db <db_path>]")
		fmt.Fprintln(stdout, "       adduser -user <username> -delete [-db <db_path>]")
		fs.PrintDefaults()
		if *username == "" {
			return fmt.Errorf("missing required flags: user")
		}
		return fmt.Errorf("missing required flags: email")
	}

	// DATABASE_URL wins only when -db was left at its default.
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" && *dbPath == defaultDBPath {
		*dbPath = dsn
	}

	if *remove {
		return deleteUser(ctx, *dbPath, *username, stdout)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}

	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := storage.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	// Tokens are never issued here, so the gate needs no issuer.
	gate := auth.NewGate(db, nil, 0)
	user, err := gate.Register(ctx, auth.RegisterInput{
		Username: *username,
		Email:    *email,
		Password: password,
	})
	if err != nil {
		return describe(err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %d\n", user.Username, user.ID)
	return nil
}

func deleteUser(ctx context.Context, dbPath, username string, stdout io.Writer) error {
	db, err := storage.NewDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	user, err := db.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("user %s does not exist", username)
	}
	if err != nil {
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if err := db.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s deleted\n", user.Username)
	return nil
}

// describe turns a registration failure into a CLI error message.
func describe(err error) error {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return fmt.Errorf("failed to create user: %w", err)
	}
	switch appErr.Code {
	case apperrors.CodeDuplicateEmail, apperrors.CodeDuplicateUsername:
		return fmt.Errorf("user already exists: %s", appErr.Message)
	case apperrors.CodeValidation:
		if len(appErr.Fields) > 0 {
			return fmt.Errorf("invalid input: %s", strings.Join(appErr.Fields, "; "))
		}
		return fmt.Errorf("invalid input: %s", appErr.Message)
	case apperrors.CodeInternal:
		return fmt.Errorf("failed to create user: %w", err)
	default:
		return errors.New(appErr.Message)
	}
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		bytePassword, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(bytePassword), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
