package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/frahmantamala/employee-records/pkg/logger"
	"github.com/spf13/cobra"
)

type seedEmployee struct {
	FirstName  string    `db:"first_name"`
	LastName   string    `db:"last_name"`
	Email      string    `db:"email"`
	Phone      string    `db:"phone"`
	Department string    `db:"department"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

var sampleEmployees = []seedEmployee{
	{FirstName: "Ana", LastName: "Ruiz", Email: "ana.ruiz@example.com", Phone: "555-1234", Department: "IT"},
	{FirstName: "Carlos", LastName: "Mendoza", Email: "carlos.mendoza@example.com", Phone: "+1 (555) 201-3344", Department: "HR"},
	{FirstName: "Lucia", LastName: "Fernandez", Email: "lucia.fernandez@example.com", Phone: "555-987-6543", Department: "Finance"},
	{FirstName: "Diego", LastName: "Torres", Email: "diego.torres@example.com", Phone: "555.443.2211", Department: "Marketing"},
	{FirstName: "Sofia", LastName: "Navarro", Email: "sofia.navarro@example.com", Phone: "+34 612 345 678", Department: "Operations"},
	{FirstName: "Mateo", LastName: "Garcia", Email: "mateo.garcia@example.com", Phone: "555-300-1200", Department: "Sales"},
	{FirstName: "Valeria", LastName: "Castro", Email: "valeria.castro@example.com", Phone: "555-777-0101", Department: "Research"},
}

const insertSeedEmployee = `
INSERT INTO employees (first_name, last_name, email, phone, department, created_at, updated_at)
VALUES (:first_name, :last_name, :email, :phone, :department, :created_at, :updated_at)
ON CONFLICT (email) DO NOTHING`

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample employees for development and testing purposes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		lg := logger.LoggerWrapper()

		db, err := initDB(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to init db: %w", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin seed transaction: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if clearData {
			res, err := tx.ExecContext(ctx, "DELETE FROM employees")
			if err != nil {
				return fmt.Errorf("failed to clear employees: %w", err)
			}
			n, _ := res.RowsAffected()
			lg.Info("cleared employees", "rows", n)
		}

		now := time.Now().UTC().Truncate(time.Microsecond)
		inserted := 0
		for _, e := range sampleEmployees {
			e.CreatedAt, e.UpdatedAt = now, now
			res, err := tx.NamedExecContext(ctx, insertSeedEmployee, e)
			if err != nil {
				return fmt.Errorf("failed to insert %s: %w", e.Email, err)
			}
			if n, _ := res.RowsAffected(); n > 0 {
				inserted++
			} else {
				lg.Debug("employee already exists", "email", e.Email)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit seed: %w", err)
		}

		fmt.Printf("Seeded %d of %d sample employees\n", inserted, len(sampleEmployees))
		return nil
	},
}
