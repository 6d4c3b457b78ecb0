package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shubilet/expedition-service/internal/utils"
	"github.com/shubilet/expedition-service/pkg/jwt"
)

func main() {
	var companyID int64
	var roles string
	var expiry time.Duration
	flag.Int64Var(&companyID, "company-id", 0, "issue an access token for this company with the generated secret")
	flag.StringVar(&roles, "roles", jwt.RoleCompany, "comma separated roles for the issued token")
	flag.DurationVar(&expiry, "expiry", 24*time.Hour, "lifetime of the issued token")
	flag.Parse()

	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for Shubilet")
	fmt.Println("===========================================")
	fmt.Println()

	secret, err := utils.GenerateSecret(32)
	if err != nil {
		log.Fatalf("Failed to generate secret: %v", err)
	}

	fmt.Println("Add this to your .env file:")
	fmt.Println()
	fmt.Printf("JWT_SECRET=%s\n", secret)
	fmt.Println()

	if companyID > 0 {
		service := jwt.NewService(secret, expiry)
		token, err := service.GenerateAccessToken(companyID, strings.Split(roles, ","))
		if err != nil {
			log.Fatalf("Failed to issue token: %v", err)
		}
		fmt.Printf("Bearer token for company %d (valid %s):\n\n%s\n\n", companyID, expiry, token)
	}

	fmt.Println("IMPORTANT: Keep this secret safe and never commit it to version control!")
	fmt.Println("===========================================")
}
