package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shubilet/expedition-service/internal/config"
	"github.com/shubilet/expedition-service/internal/database"
	"github.com/shubilet/expedition-service/internal/models"
	"github.com/sirupsen/logrus"
)

// refund-report lists charged bookings that could neither be committed nor refunded,
// with the full audit trail of each attempt.
func main() {
	var dbURLFlag string
	var limit int
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.IntVar(&limit, "limit", 50, "maximum number of failed refunds to list")
	flag.Parse()

	_ = godotenv.Load()

	dbURL := dbURLFlag
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set and -database-url was not provided")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	db, err := database.NewConnection(config.DatabaseConfig{URL: dbURL, MaxConnections: 2, MaxIdleConnections: 1}, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	audits := database.NewPaymentAuditRepository(db.DB, logger)
	failures, err := audits.GetUnrefundedFailures(ctx, limit)
	if err != nil {
		log.Fatalf("failed to load refund failures: %v", err)
	}

	fmt.Println("=== Unrefunded Payments ===")
	if len(failures) == 0 {
		fmt.Println("None. Every failed booking was refunded.")
		return
	}

	for _, failure := range failures {
		fmt.Println("----------------------------------------------")
		fmt.Printf("hold %s  payment %s  amount %s  at %s\n",
			failure.HoldID, formatID(failure.PaymentID), formatAmount(failure.AmountCents), failure.CreatedAt.Format(time.RFC3339))
		if failure.HoldID == nil {
			continue
		}

		trail, err := audits.GetByHoldID(ctx, *failure.HoldID)
		if err != nil {
			fmt.Printf("  error loading trail: %v\n", err)
			continue
		}
		for _, entry := range trail {
			fmt.Printf("  %s  %-28s status=%s %s\n",
				entry.CreatedAt.Format("15:04:05.000"), entry.EventType, formatStatus(entry), deref(entry.ErrorMessage))
		}
	}
	fmt.Println("----------------------------------------------")
	fmt.Printf("%d payment(s) need a manual refund\n", len(failures))
}

func formatID(id *int64) string {
	if id == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *id)
}

func formatAmount(cents *int64) string {
	if cents == nil {
		return "-"
	}
	return models.FormatCents(*cents)
}

func formatStatus(audit *models.PaymentAudit) string {
	if audit.HTTPStatusCode == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *audit.HTTPStatusCode)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
