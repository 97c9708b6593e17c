// Command gentoken prints a signed access token for local testing.
// Usage: go run ./cmd/gentoken -role admin -user u-1
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"
	"github.com/CJosueA/Sistema-Facturacion/internal/middleware"
)

func main() {
	role := flag.String("role", middleware.RoleSeller, "seller | admin")
	user := flag.String("user", "dev", "user id placed in the token")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if cfg.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}

	tok, err := middleware.IssueToken(cfg.JWTSecret, *user, *role, time.Duration(cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(tok)
}
