// Command devtoken mints a bearer token for local development, signed with
// the configured JWT secret.
package main

import (
	"flag"
	"fmt"
	"os"

	"coin-ledger/config"
	"coin-ledger/internal/service"

	"github.com/google/uuid"
)

func main() {
	userFlag := flag.String("user", "", "user id to put in the token (random when empty)")
	configFlag := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	if *userFlag != "" {
		userID, err = uuid.Parse(*userFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid user id: %v\n", err)
			os.Exit(1)
		}
	}

	token, expiresAt, err := service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer).Generate(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "user %s, expires %s\n", userID, expiresAt.Format("2006-01-02 15:04:05Z07:00"))
	fmt.Println(token)
}
