// Command reconcile applies a payment outcome to a pending donation.
//
//	reconcile -id <donation uuid> -status completed|failed
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"server/internal/adapter/repo"
	"server/internal/domain"
	"server/internal/infra"
	"server/internal/ledger"
)

func main() {
	var (
		idFlag     string
		statusFlag string
	)

	flag.StringVar(&idFlag, "id", "", "donation ID to reconcile (UUID)")
	flag.StringVar(&statusFlag, "status", "", "outcome to apply (completed, failed)")
	flag.Parse()

	_ = godotenv.Load()

	id := strings.TrimSpace(idFlag)
	status := domain.DonationStatus(strings.TrimSpace(strings.ToLower(statusFlag)))

	if id == "" {
		exitWithError(errors.New("-id is required"))
	}
	if status != domain.DonationStatusCompleted && status != domain.DonationStatusFailed {
		exitWithError(fmt.Errorf("-status must be completed or failed, got %q", statusFlag))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	logger := infra.NewLogger("cli", "").With().Str("cmd", "reconcile").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	pool, err := infra.NewDBPool(ctx, &infra.Config{DatabaseURL: dbURL, DBConnectTimeout: 10 * time.Second}, logger)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	svc := ledger.NewService(repo.NewDonationRepository(infra.NewSQLRunner(pool, logger)), logger)
	d, err := svc.SetStatus(ctx, id, status)
	if err != nil {
		exitWithError(fmt.Errorf("failed to reconcile donation %s: %w", id, err))
	}

	fmt.Printf("Donation %s (%s, %s) is now %s\n", d.ID, d.DonorName, d.DonationType, d.Status)
	if d.Amount != nil {
		fmt.Printf("amount=%s\n", d.Amount.StringFixed(2))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
