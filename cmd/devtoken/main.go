// Command devtoken mints an identity token for local runs, standing in for
// the community's identity provider.
//
//	go run ./cmd/devtoken -sub res-1 -role RESIDENT -name "Ana" -unit A-1
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/utils"
)

func main() {
	_ = godotenv.Load()

	var (
		sub  = flag.String("sub", "", "user id (required)")
		role = flag.String("role", model.RoleResident, "RESIDENT or ADMIN")
		name = flag.String("name", "", "display name")
		unit = flag.String("unit", "", "house or apartment")
		ttl  = flag.Duration("ttl", 12*time.Hour, "token lifetime")
	)
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" || *sub == "" {
		fmt.Fprintln(os.Stderr, "devtoken: JWT_SECRET and -sub are required")
		os.Exit(2)
	}
	r := strings.ToUpper(*role)
	if r != model.RoleResident && r != model.RoleAdmin {
		fmt.Fprintf(os.Stderr, "devtoken: unknown role %q\n", *role)
		os.Exit(2)
	}

	tok, err := utils.NewAccessToken(secret, model.Identity{UserID: *sub, Role: r, Name: *name, Unit: *unit}, *ttl)
	if err != nil {
		fmt.Fprintln(os.Stderr, "devtoken:", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
