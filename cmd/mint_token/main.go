package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/auth"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/utils"
)

// Mints a signed bearer token for local testing. Uses the same JWT_SECRET
// the server reads, so the output works against a dev instance directly:
//
//	go run ./cmd/mint_token -name "Ada Park" -role member
func main() {
	id := flag.String("id", "", "user id (random when empty)")
	name := flag.String("name", "Dev User", "display name")
	email := flag.String("email", "", "email (optional)")
	role := flag.String("role", "admin", "role checked against blueprint permissions")
	flag.Parse()

	userID := *id
	if userID == "" {
		userID = utils.GenerateID()
	}

	session := models.UserSession{
		ID:   userID,
		Name: *name,
		Role: *role,
	}
	if *email != "" {
		session.Email = email
	}

	token, err := auth.GenerateToken(session)
	if err != nil {
		log.Fatalf("Failed to mint token: %v", err)
	}

	fmt.Printf("User:  %s (%s, role=%s)\n", session.Name, session.ID, session.Role)
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("\ncurl -H 'Authorization: Bearer %s' http://localhost:8080/api/apps\n", token)
}
