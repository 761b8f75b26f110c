package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lcalzada-xor/vulnmanager/internal/adapters/advisory"
	"github.com/lcalzada-xor/vulnmanager/internal/config"
	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
)

func main() {
	var seedFiles []string
	flag.Func("seed-file", "Path to an advisory seed file, JSON or YAML (repeatable, comma separated)", func(v string) error {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				seedFiles = append(seedFiles, p)
			}
		}
		return nil
	})
	dbPath := flag.String("db-path", config.Default().DBPath, "Path to the vulnmanager database")
	flag.Parse()

	if len(seedFiles) == 0 {
		seedFiles = []string{"./configs/advisory_seed.yaml"}
	}

	log.Println("=== Advisory Seed Loader ===")
	log.Printf("Seed files: %s", strings.Join(seedFiles, ", "))
	log.Printf("Database: %s", *dbPath)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	// Create repository
	repo, err := advisory.NewSQLiteRepository(*dbPath)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}
	defer repo.Close()

	// Load seed data
	loader := advisory.NewSeedLoader(repo)
	ctx := context.Background()

	res, err := loader.LoadFromMultipleFiles(ctx, seedFiles)
	if err != nil {
		repo.Close()
		log.Fatalf("Failed to load seed data: %v", err)
	}
	log.Printf("Scored %d advisories, skipped %d with invalid vectors", res.Loaded, res.Failed)

	// Show stats
	stats, err := repo.Stats(ctx)
	if err != nil {
		log.Printf("Warning: could not read stats: %v", err)
		return
	}
	log.Printf("✓ Database now contains %d advisories (average score %.1f)", stats.Total, stats.AverageScore)
	for i := len(domain.Severities) - 1; i >= 0; i-- {
		sev := domain.Severities[i]
		log.Printf("  %-8s %d", sev, stats.BySeverity[sev])
	}
}
