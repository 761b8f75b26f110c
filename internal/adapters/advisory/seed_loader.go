package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lcalzada-xor/vulnmanager/internal/core/domain"
	"github.com/lcalzada-xor/vulnmanager/internal/core/ports"
	"github.com/lcalzada-xor/vulnmanager/internal/core/services/cvss"
	"gopkg.in/yaml.v3"
)

// LoadResult summarises one seed import.
type LoadResult struct {
	Loaded int
	Failed int
}

// SeedLoader scores advisories from seed files and stores them.
type SeedLoader struct {
	repo   ports.AdvisoryRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewSeedLoader creates a new seed loader.
func NewSeedLoader(repo ports.AdvisoryRepository) *SeedLoader {
	return &SeedLoader{
		repo:   repo,
		logger: slog.Default().With("component", "advisory_seed"),
		now:    time.Now,
	}
}

// ReadSeedFile decodes a list of advisories. Files ending in .yaml or .yml
// are read as YAML, anything else as JSON.
func ReadSeedFile(path string) ([]domain.Advisory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var advisories []domain.Advisory
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &advisories)
	default:
		err = json.Unmarshal(data, &advisories)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return advisories, nil
}

// Score resolves the advisory's vector strictly and fills in the derived
// fields. The vector is rewritten in canonical order.
func Score(adv domain.Advisory, at time.Time) (domain.Advisory, error) {
	metrics, err := cvss.ParseVectorStrict(adv.CVSSVector)
	if err != nil {
		return adv, fmt.Errorf("advisory %s: %w", adv.ID, err)
	}
	res, err := cvss.Calculate(metrics)
	if err != nil {
		return adv, fmt.Errorf("advisory %s: %w", adv.ID, err)
	}

	adv.CVSSVector = res.Vector
	adv.Score = res.Score
	adv.Severity = res.Severity
	adv.ScoredAt = at.UTC()
	return adv, nil
}

// LoadFromFile scores and upserts every advisory in path and records the
// import status. Records without an ID or with an invalid vector are skipped
// and counted as failed.
func (s *SeedLoader) LoadFromFile(ctx context.Context, path string) (LoadResult, error) {
	now := s.now()
	result, err := s.loadFile(ctx, path, now)
	if err != nil {
		return result, err
	}
	return result, s.recordImport(ctx, now, path, result)
}

// LoadFromMultipleFiles loads each file in turn. A file that cannot be read
// is logged and skipped; the totals and the recorded import status cover the
// files that were read.
func (s *SeedLoader) LoadFromMultipleFiles(ctx context.Context, paths []string) (LoadResult, error) {
	var total LoadResult
	var loaded []string
	now := s.now()

	for _, path := range paths {
		res, err := s.loadFile(ctx, path, now)
		total.Loaded += res.Loaded
		total.Failed += res.Failed
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			s.logger.Error("failed to load seed file", "file", path, "error", err)
			continue
		}
		loaded = append(loaded, path)
	}

	s.logger.Info("seed import finished", "files", len(loaded), "of", len(paths))
	if len(loaded) == 0 {
		return total, nil
	}
	return total, s.recordImport(ctx, now, strings.Join(loaded, ","), total)
}

func (s *SeedLoader) loadFile(ctx context.Context, path string, now time.Time) (LoadResult, error) {
	s.logger.Info("loading advisories", "file", path)

	advisories, err := ReadSeedFile(path)
	if err != nil {
		return LoadResult{}, err
	}

	var result LoadResult
	for _, adv := range advisories {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if adv.ID == "" {
			s.logger.Warn("skipping advisory without id", "file", path)
			result.Failed++
			continue
		}

		scored, err := Score(adv, now)
		if err != nil {
			s.logger.Warn("skipping advisory", "id", adv.ID, "error", err)
			result.Failed++
			continue
		}

		if err := s.repo.UpsertAdvisory(ctx, scored); err != nil {
			s.logger.Error("failed to store advisory", "id", adv.ID, "error", err)
			result.Failed++
			continue
		}
		result.Loaded++
	}

	s.logger.Info("advisories loaded", "file", path, "loaded", result.Loaded, "failed", result.Failed)
	return result, nil
}

func (s *SeedLoader) recordImport(ctx context.Context, at time.Time, source string, result LoadResult) error {
	status := domain.ImportStatus{
		LastImportTime: at,
		Source:         source,
		RecordCount:    result.Loaded,
		FailedCount:    result.Failed,
	}
	if err := s.repo.UpdateImportStatus(ctx, status); err != nil {
		return fmt.Errorf("failed to update import status: %w", err)
	}
	return nil
}
