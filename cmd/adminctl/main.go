// Command adminctl bootstraps an administrator account so the first login
// on a fresh deployment is possible. Run it against the same database the
// server uses:
//
//	adminctl -d "postgres://..." -e root@hotel.example -n "Root"
//
// The password is read from the terminal without echo.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/fixhost/fixhost/internal/server/config"
	"github.com/fixhost/fixhost/internal/server/models"
	"github.com/fixhost/fixhost/internal/server/repositories/repomanager"
	"github.com/fixhost/fixhost/internal/server/services"
)

func main() {
	cfg := config.LoadConfig()

	dsn := flag.String("d", cfg.DatabaseDSN, "database DSN")
	email := flag.String("e", "", "admin email")
	name := flag.String("n", "Administrator", "admin display name")
	flag.Parse()

	if *email == "" {
		log.Fatal("email is required (-e)")
	}

	password, err := promptPassword()
	if err != nil {
		log.Fatalf("reading password: %v", err)
	}

	ctx := context.Background()

	rm, err := repomanager.NewPostgresRepositoryManager(ctx, *dsn)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer rm.Close()

	svc := services.NewUserService(rm.Users(), cfg)
	user, err := svc.Register(ctx, strings.TrimSpace(*email), *name, password, models.RoleAdmin)
	if err != nil {
		log.Fatalf("creating admin: %v", err)
	}

	fmt.Printf("admin %s created (id %s)\n", user.Email, user.ID)
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}

	fmt.Print("Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	return string(first), nil
}
