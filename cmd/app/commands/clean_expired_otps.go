package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sealkeep/sealkeep/internal/app"
	"github.com/sealkeep/sealkeep/internal/config"
)

// RunCleanExpiredOTPs deletes email verification codes that expired more than
// the specified number of days ago. Supports text and JSON output formats.
//
// Requirements: Database must be migrated and accessible.
func RunCleanExpiredOTPs(ctx context.Context, days int, format string) error {
	// Validate days parameter
	if days < 0 {
		return fmt.Errorf("days must be a positive number, got: %d", days)
	}

	// Load configuration
	cfg := config.Load()

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("cleaning expired verification codes",
		slog.Int("days", days),
	)

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Get OTP repository from container
	otpRepo, err := container.OTPRepository()
	if err != nil {
		return fmt.Errorf("failed to initialize otp repository: %w", err)
	}

	before := time.Now().UTC().AddDate(0, 0, -days)
	count, err := otpRepo.DeleteExpired(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to delete expired verification codes: %w", err)
	}

	// Output result based on format
	if format == "json" {
		outputCleanExpiredJSON(count, days)
	} else {
		outputCleanExpiredText(count, days)
	}

	logger.Info("cleanup completed",
		slog.Int64("count", count),
		slog.Int("days", days),
	)

	return nil
}

// outputCleanExpiredText outputs the result in human-readable text format.
func outputCleanExpiredText(count int64, days int) {
	fmt.Printf("Successfully deleted %d verification code(s) expired more than %d day(s) ago\n", count, days)
}

// outputCleanExpiredJSON outputs the result in JSON format for machine consumption.
func outputCleanExpiredJSON(count int64, days int) {
	result := map[string]interface{}{
		"count": count,
		"days":  days,
	}

	jsonBytes, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to marshal JSON: %v\n", err)
		return
	}

	fmt.Println(string(jsonBytes))
}
