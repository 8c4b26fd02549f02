// Command token mints an access token for local testing of the job write
// endpoints.
package main

import (
	"flag"
	"fmt"
	"log"

	"nearby-jobs/internal/config"
	"nearby-jobs/internal/pkg/jwt"

	"github.com/google/uuid"
)

func main() {
	user := flag.String("user", "", "user id (random when empty)")
	admin := flag.Bool("admin", false, "issue an admin token")
	flag.Parse()

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to read .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	userID := uuid.New()
	if *user != "" {
		userID, err = uuid.Parse(*user)
		if err != nil {
			log.Fatalf("invalid -user: %v", err)
		}
	}
	role := jwt.RoleUser
	if *admin {
		role = jwt.RoleAdmin
	}

	svc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.Issuer, cfg.JWT.AccessExpiresIn)
	tok, err := svc.GenerateAccessToken(userID, role)
	if err != nil {
		log.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(tok)
}
