package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/noah-isme/ristore-api/internal/auth"
)

// Prints a signed bearer token for local use against the admin routes.
func main() {
	subject := flag.String("sub", "admin", "token subject")
	roles := flag.String("roles", "admin", "comma-separated roles")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	issuer := envOr("JWT_ISSUER", "ristore")
	audience := envOr("JWT_AUDIENCE", "ristore-api")

	token, err := auth.NewVerifier(secret, issuer, audience).Issue(*subject, strings.Split(*roles, ","), *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
