// Package seed inserts fake customers at startup for manual testing. It is
// skipped when the store already holds data.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"customer-api/internal/config"
	"customer-api/internal/domain/customer"

	"github.com/brianvoe/gofakeit/v7"
)

func Apply(ctx context.Context, cfg config.SeedConfig, service customer.CustomerService, logger *slog.Logger) error {
	logger = logger.With("component", "seed")

	existing, err := service.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("check existing customers: %w", err)
	}
	if len(existing) > 0 {
		logger.Info("Store already has customers, skipping seed", "count", len(existing))
		return nil
	}

	count := cfg.Count
	if count <= 0 {
		count = 1
	}

	for i := 0; i < count; i++ {
		firstName := gofakeit.FirstName()
		lastName := gofakeit.LastName()
		name := firstName + " " + lastName
		email := strings.ToLower(firstName) + "." + strings.ToLower(lastName) + "@gmail.com"
		age := gofakeit.Number(18, 80)

		if err := service.RegisterCustomer(ctx, name, email, age); err != nil {
			return fmt.Errorf("seed customer %q: %w", name, err)
		}
		logger.Info("Seeded customer", "name", name, "email", email)
	}

	return nil
}
