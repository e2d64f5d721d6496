// Command devtoken mints an identity token signed with the server's
// AUTH_SECRET, for local development and manual testing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/mmynk/expenseshare/internal/auth"
	"github.com/mmynk/expenseshare/internal/config"
)

func main() {
	subject := flag.String("sub", "", "token identifier (required)")
	name := flag.String("name", "", "display name")
	username := flag.String("username", "", "preferred username")
	email := flag.String("email", "", "email address")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to TOKEN_TTL)")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "devtoken: -sub is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.AuthSecret == "" {
		fmt.Fprintln(os.Stderr, "devtoken: AUTH_SECRET is not set")
		os.Exit(1)
	}
	lifetime := cfg.TokenTTL
	if *ttl > 0 {
		lifetime = *ttl
	}

	manager := auth.NewJWTManager(cfg.AuthSecret, cfg.AuthIssuer, lifetime)
	token, err := manager.Generate(&auth.Identity{
		TokenIdentifier: *subject,
		Name:            *name,
		Username:        *username,
		Email:           *email,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	if lifetime > 0 {
		fmt.Fprintf(os.Stderr, "expires %s\n", time.Now().Add(lifetime).Format(time.RFC3339))
	}
}
