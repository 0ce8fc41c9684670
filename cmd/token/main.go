package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/johnquangdev/atc-shift-analyzer/pkg/config"
	pkgjwt "github.com/johnquangdev/atc-shift-analyzer/pkg/jwt"
)

// Mints access tokens for local testing of the guarded routes
func main() {
	subject := flag.String("sub", "supervisor-1", "token subject")
	name := flag.String("name", "Duty Supervisor", "display name")
	role := flag.String("role", pkgjwt.RoleSupervisor, "admin, supervisor or viewer")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to JWT_ACCESS_EXPIRY)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lifetime := cfg.JWT.AccessExpiry
	if *expiry > 0 {
		lifetime = *expiry
	}

	switch *role {
	case pkgjwt.RoleAdmin, pkgjwt.RoleSupervisor, pkgjwt.RoleViewer:
	default:
		log.Fatalf("Unknown role %q", *role)
	}

	manager := pkgjwt.NewManager(cfg.JWT.AccessSecret, lifetime, cfg.JWT.Issuer)
	token, err := manager.GenerateAccessToken(*subject, *name, *role)
	if err != nil {
		log.Fatalf("❌ Failed to generate access token: %v", err)
	}

	fmt.Printf("═══════════════════════════════════════════════════════════════\n")
	fmt.Printf("Subject:      %s\n", *subject)
	fmt.Printf("Name:         %s\n", *name)
	fmt.Printf("Role:         %s\n", *role)
	fmt.Printf("Expires:      %s\n", time.Now().Add(lifetime).UTC().Format(time.RFC3339))
	fmt.Printf("\n📋 Access Token:\n%s\n", token)
	fmt.Printf("───────────────────────────────────────────────────────────────\n")
	log.Println("💡 Send it as: Authorization: Bearer <access_token>")
}
