package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"linker-backend/pkg/utils"
)

// 本地开发时签发 bearer token：
//
//	go run ./scripts/dev_token -sub user_123
//	curl -H "Authorization: Bearer $(go run ./scripts/dev_token -sub user_123)" localhost:8000/links/get-all-links
func main() {
	sub := flag.String("sub", "dev-user", "subject (user id) of the token")
	secret := flag.String("secret", os.Getenv("CLERK_SECRET_KEY"), "HS256 secret; must match CLERK_SECRET_KEY when AUTH_MODE=hs256")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *sub == "" {
		log.Fatal("❌ -sub must not be empty")
	}
	if *secret == "" {
		*secret = "dev-secret"
	}

	token, err := utils.NewTokenIssuer(*secret, *ttl).IssueHS256(*sub)
	if err != nil {
		log.Fatalf("❌ Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
