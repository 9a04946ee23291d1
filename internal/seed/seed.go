// Package seed populates the demo environment: raw bronze tables in the
// local warehouse, in the original system's shape and with its deliberate
// data-quality issues, plus a starter glossary loaded from an embedded YAML
// file. Both operations are idempotent.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"lakeagent/internal/catalog"
	"lakeagent/internal/domain"
)

//go:embed glossary.yaml
var glossaryYAML []byte

// warehouseStatements creates the medallion schemas and the demo bronze
// tables. raw_customers carries intentional quality issues (duplicate rows,
// NULL keys, inconsistent casing, empty phones) so that "clean raw_customers"
// has something real to do.
var warehouseStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS bronze`,
	`CREATE SCHEMA IF NOT EXISTS silver`,
	`CREATE SCHEMA IF NOT EXISTS gold`,

	`CREATE OR REPLACE TABLE bronze.raw_customers (
		contact_id INTEGER,
		first_name VARCHAR,
		last_name VARCHAR,
		email VARCHAR,
		phone VARCHAR,
		created_at TIMESTAMP
	)`,
	`INSERT INTO bronze.raw_customers VALUES
		(1, 'John', 'DOE', 'john.doe@email.com', '555-0101', '2024-01-15 10:30:00'),
		(1, 'John', 'DOE', 'john.doe@email.com', '555-0101', '2024-01-15 10:30:00'),
		(2, 'jane', 'SMITH', 'JANE.SMITH@EMAIL.COM', '555-0102', '2024-01-16 11:45:00'),
		(3, 'Bob', 'Johnson', 'bob.j@email.com', NULL, '2024-01-17 09:15:00'),
		(4, 'ALICE', 'williams', 'alice.w@email.com', '555-0104', '2024-01-18 14:20:00'),
		(5, 'Charlie', 'BROWN', 'charlie.brown@email.com', '555-0105', '2024-01-19 16:00:00'),
		(NULL, 'Invalid', 'User', 'invalid@email.com', '555-0106', '2024-01-20 08:30:00'),
		(6, 'Diana', 'Miller', 'diana.m@email.com', '555-0107', '2024-01-21 12:00:00'),
		(7, 'Edward', 'DAVIS', 'edward.davis@email.com', '', '2024-01-22 10:45:00'),
		(8, 'fiona', 'Garcia', 'FIONA.GARCIA@email.com', '555-0109', '2024-01-23 15:30:00'),
		(9, 'George', 'martinez', 'george.m@email.com', '555-0110', '2024-01-24 09:00:00'),
		(10, 'Hannah', 'ANDERSON', 'hannah.a@email.com', '555-0111', '2024-01-25 11:15:00'),
		(5, 'Charlie', 'BROWN', 'charlie.brown@email.com', '555-0105', '2024-01-19 16:00:00'),
		(11, NULL, 'Wilson', 'unknown@email.com', '555-0112', '2024-01-26 14:45:00'),
		(12, 'Jack', NULL, 'jack@email.com', '555-0113', '2024-01-27 10:00:00')`,

	`CREATE OR REPLACE TABLE bronze.raw_orders (
		order_id INTEGER,
		contact_id INTEGER,
		product_id INTEGER,
		order_amount DECIMAL(10,2),
		quantity INTEGER,
		order_date TIMESTAMP
	)`,
	`INSERT INTO bronze.raw_orders VALUES
		(1001, 1, 11, 49.99, 1, '2024-02-01 09:10:00'),
		(1002, 2, 12, 120.00, 2, '2024-02-02 13:25:00'),
		(1003, 3, 11, 49.99, 1, '2024-02-03 17:40:00'),
		(1003, 3, 11, 49.99, 1, '2024-02-03 17:40:00'),
		(1004, 5, 13, 15.50, 3, '2024-02-05 11:05:00'),
		(1005, NULL, 12, 120.00, 1, '2024-02-06 08:55:00'),
		(1006, 8, 14, 310.00, 1, '2024-02-08 19:30:00'),
		(1007, 9, 13, 15.50, NULL, '2024-02-10 10:15:00'),
		(1008, 10, 11, 49.99, 2, '2024-02-11 15:45:00')`,

	`CREATE OR REPLACE TABLE bronze.raw_products (
		product_id INTEGER,
		product_name VARCHAR,
		category VARCHAR,
		unit_price DECIMAL(10,2)
	)`,
	`INSERT INTO bronze.raw_products VALUES
		(11, 'Basic Widget', 'widgets', 49.99),
		(12, 'Premium Widget', 'widgets', 120.00),
		(13, 'Gadget Mini', 'gadgets', 15.50),
		(14, 'Gadget Pro', 'gadgets', 310.00),
		(14, 'Gadget Pro', 'gadgets', 310.00)`,
}

// Warehouse creates the demo schemas and bronze tables in the given
// warehouse. CREATE OR REPLACE makes re-runs converge on the same state.
func Warehouse(ctx context.Context, exec domain.StatementExecutor, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, stmt := range warehouseStatements {
		if _, err := exec.Execute(ctx, stmt); err != nil {
			return fmt.Errorf("seed warehouse: %w", err)
		}
	}
	logger.Info("seeded demo warehouse", "schemas", 3, "tables", 3)
	return nil
}

type glossaryFile struct {
	Terms []glossaryEntry `yaml:"terms"`
}

type glossaryEntry struct {
	Term       string   `yaml:"term"`
	Aliases    []string `yaml:"aliases"`
	Kind       string   `yaml:"kind"`
	Expression string   `yaml:"expression"`
	Tables     []string `yaml:"tables"`
	Columns    []string `yaml:"columns"`
	Definition string   `yaml:"definition"`
}

// GlossaryTerms parses the embedded glossary file.
func GlossaryTerms() ([]domain.BusinessTerm, error) {
	var file glossaryFile
	if err := yaml.Unmarshal(glossaryYAML, &file); err != nil {
		return nil, fmt.Errorf("parse glossary seed: %w", err)
	}
	terms := make([]domain.BusinessTerm, 0, len(file.Terms))
	for _, e := range file.Terms {
		terms = append(terms, domain.BusinessTerm{
			Term:       e.Term,
			Aliases:    e.Aliases,
			Kind:       domain.TermKind(e.Kind),
			Expression: e.Expression,
			Tables:     e.Tables,
			Columns:    e.Columns,
			Definition: e.Definition,
		})
	}
	return terms, nil
}

// Glossary loads the embedded terms into the store. Terms already present
// (matched by name) are overwritten in place, so re-seeding is safe.
func Glossary(ctx context.Context, store *catalog.Store, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	terms, err := GlossaryTerms()
	if err != nil {
		return err
	}
	for _, term := range terms {
		if err := store.AddTerm(ctx, term); err != nil {
			return fmt.Errorf("seed glossary term %q: %w", term.Term, err)
		}
	}
	logger.Info("seeded glossary", "terms", len(terms))
	return nil
}
