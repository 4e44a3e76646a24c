// Package main provides a CLI tool for generating test tokens for the aibetix
// compliance API. These tokens use the dev signing key and will NOT work in
// production.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	jwttoken "aibetix/internal/jwt_token"
	"aibetix/internal/platform/middleware"
	"aibetix/pkg/secrets"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultTokenTTL = 15 * time.Minute
)

type tokenOutput struct {
	Token     string            `json:"token"`
	Type      string            `json:"type"`
	ExpiresIn string            `json:"expires_in,omitempty"`
	Claims    map[string]any    `json:"claims,omitempty"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	userCmd := flag.NewFlagSet("user", flag.ExitOnError)
	adminCmd := flag.NewFlagSet("admin", flag.ExitOnError)
	hashCmd := flag.NewFlagSet("admin-hash", flag.ExitOnError)

	userID := userCmd.String("user-id", "", "User ID (UUID). Generated if empty.")
	userTTL := userCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	userKey := userCmd.String("key", devSigningKey, "JWT signing key")
	userJSON := userCmd.Bool("json", false, "Output as JSON")

	adminID := adminCmd.String("user-id", "", "Admin user ID (UUID). Generated if empty.")
	adminTTL := adminCmd.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	adminKey := adminCmd.String("key", devSigningKey, "JWT signing key")
	adminJSON := adminCmd.Bool("json", false, "Output as JSON")

	hashToken := hashCmd.String("token", "", "Admin token to hash for ADMIN_TOKEN_HASH. Generated if empty.")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "user":
		userCmd.Parse(os.Args[2:])
		generate(*userID, "", *userTTL, *userKey, *userJSON)
	case "admin":
		adminCmd.Parse(os.Args[2:])
		generate(*adminID, middleware.RoleAdmin, *adminTTL, *adminKey, *adminJSON)
	case "admin-hash":
		hashCmd.Parse(os.Args[2:])
		generateAdminHash(*hashToken)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - Generate test tokens for the aibetix compliance API

WARNING: These tokens use the dev signing key and will NOT work in production.
         Only use for local development and testing.

Usage:
  tokengen <command> [flags]

Commands:
  user        Generate a user bearer token (JWT)
  admin       Generate an ADMIN role bearer token (JWT)
  admin-hash  Generate an X-Admin-Token secret and its bcrypt hash

Examples:
  # Generate a user token with defaults
  tokengen user

  # Generate a token for a specific user with a custom TTL
  tokengen user -user-id "550e8400-e29b-41d4-a716-446655440000" -ttl 1h

  # Generate an admin token for the review endpoints
  tokengen admin

  # Mint an ops token and the ADMIN_TOKEN_HASH value for the server env
  tokengen admin-hash

Use "tokengen <command> -h" for more information about a command.`)
}

func generate(userID, role string, ttl time.Duration, signingKey string, jsonOutput bool) {
	uid := parseOrGenerateUUID(userID)

	token, err := jwttoken.NewValidator(signingKey).Issue(uid.String(), role, ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	tokenType := "user_token"
	if role != "" {
		tokenType = "admin_token"
	}

	if jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			Type:      tokenType,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"user_id": uid.String(),
				"role":    role,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Bearer Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In: %s\n", ttl)
	fmt.Printf("User ID:    %s\n", uid)
	if role != "" {
		fmt.Printf("Role:       %s\n", role)
	}
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/compliance/status")
}

func generateAdminHash(token string) {
	if token == "" {
		generated, err := secrets.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
			os.Exit(1)
		}
		token = generated
	}

	hash, err := secrets.Hash(token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Admin API Token")
	fmt.Println("===============")
	fmt.Printf("Token: %s\n", token)
	fmt.Printf("Hash:  %s\n", hash)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  export ADMIN_TOKEN_HASH='" + hash + "'")
	fmt.Println("  curl -H \"X-Admin-Token: " + token + "\" http://localhost:8080/compliance/admin/pending-verifications")
}

func parseOrGenerateUUID(input string) uuid.UUID {
	if input == "" {
		return uuid.New()
	}
	parsed, err := uuid.Parse(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user-id UUID: %s\n", input)
		os.Exit(1)
	}
	return parsed
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
