package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tallyfy/denizen-assets/internal/entity"
)

func (s *assetService) Run(ctx context.Context) (*entity.RunReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report := &entity.RunReport{
		RunID:   uuid.New().String(),
		Started: time.Now(),
	}
	defer func() { report.Finished = time.Now() }()

	log := logrus.WithField("run_id", report.RunID)
	log.Infof("Resizing images in %s", s.opts.SourceDir)

	if err := s.checkDirs(); err != nil {
		return report, err
	}

	entries, err := s.storage.List(s.opts.SourceDir)
	if err != nil {
		return report, err
	}

	var failures []error
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			log.Warnf("Run canceled: %v", err)
			return report, err
		}

		name := e.Name()
		if e.IsDir() || s.Ignores(name) {
			log.WithField("asset", name).Debug("Skipping entry")
			report.Ignored = append(report.Ignored, name)
			continue
		}

		result, err := s.processFile(ctx, report.RunID, name)
		if err != nil {
			if !s.opts.ContinueOnError {
				return report, err
			}
			log.WithField("asset", name).Errorf("Failed to resize: %v", err)
			report.Failed = append(report.Failed, entity.AssetFailure{Name: name, Error: err.Error()})
			failures = append(failures, err)
			continue
		}

		if result.Skipped {
			report.Skipped++
		} else {
			report.Processed++
		}
		report.Results = append(report.Results, *result)
	}

	if err := s.stage(ctx); err != nil {
		return report, errors.Join(append(failures, err)...)
	}
	report.Staged = s.tierDirs()
	report.Finished = time.Now()

	log.WithFields(logrus.Fields{
		"processed": report.Processed,
		"skipped":   report.Skipped,
		"ignored":   len(report.Ignored),
		"failed":    len(report.Failed),
		"duration":  report.Finished.Sub(report.Started),
	}).Info("Run completed")

	return report, errors.Join(failures...)
}

func (s *assetService) ProcessFile(ctx context.Context, name string) (*entity.AssetResult, error) {
	if err := s.validateName(name); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.storage.Exists(s.sourcePath(name)) {
		return nil, fmt.Errorf("%w: %s", entity.ErrAssetNotFound, name)
	}
	if err := s.checkDirs(); err != nil {
		return nil, err
	}
	return s.processFile(ctx, uuid.New().String(), name)
}

func (s *assetService) Stage(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage(ctx)
}

// Describe reports the tier outputs currently on disk for an asset.
func (s *assetService) Describe(name string) (*entity.AssetResult, error) {
	if err := s.validateName(name); err != nil {
		return nil, err
	}
	if !s.storage.Exists(s.sourcePath(name)) {
		return nil, fmt.Errorf("%w: %s", entity.ErrAssetNotFound, name)
	}

	result := &entity.AssetResult{
		Name:    name,
		Source:  s.sourcePath(name),
		Outputs: []entity.TierOutput{},
	}
	for _, tier := range s.opts.Tiers {
		out, ok := s.describeOutput(tier, name)
		if ok {
			result.Outputs = append(result.Outputs, out)
		}
	}
	return result, nil
}

// Upload decodes the bytes before they reach the source dir, so a file that
// cannot be resized is never left there to fail later batch runs.
func (s *assetService) Upload(ctx context.Context, name string, data io.Reader) (*entity.AssetResult, error) {
	if err := s.validateName(name); err != nil {
		return nil, err
	}

	content, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}
	if _, err := s.processor.Decode(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrInvalidImage, name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkDirs(); err != nil {
		return nil, err
	}

	source := s.sourcePath(name)
	existed := s.storage.Exists(source)
	if err := s.storage.Save(source, bytes.NewReader(content)); err != nil {
		return nil, err
	}

	result, err := s.processFile(ctx, uuid.New().String(), name)
	if err != nil {
		if !existed {
			if rmErr := s.storage.Remove(source); rmErr != nil {
				logrus.WithField("asset", name).Warnf("Failed to remove rejected upload: %v", rmErr)
			}
		}
		return nil, err
	}
	return result, nil
}

// Ignores reports whether name ends with one of the skip suffixes.
func (s *assetService) Ignores(name string) bool {
	for _, suffix := range s.opts.SkipSuffixes {
		if suffix != "" && strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (s *assetService) processFile(ctx context.Context, runID, name string) (*entity.AssetResult, error) {
	log := logrus.WithFields(logrus.Fields{"run_id": runID, "asset": name})
	source := s.sourcePath(name)

	data, err := s.readSource(source)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])

	result := &entity.AssetResult{Name: name, Source: source, Digest: digest}

	if s.upToDate(ctx, name, digest) {
		for _, tier := range s.opts.Tiers {
			if out, ok := s.describeOutput(tier, name); ok {
				result.Outputs = append(result.Outputs, out)
			}
		}
		result.Skipped = true
		log.Debug("Unchanged since last run")
		return result, nil
	}

	img, err := s.processor.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	for _, tier := range s.opts.Tiers {
		resized, err := s.processor.Transform(img, tier)
		if err != nil {
			return nil, fmt.Errorf("%s: tier %s: %w", name, tier.Name, err)
		}

		var buf bytes.Buffer
		if err := s.processor.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("%s: tier %s: failed to encode: %w", name, tier.Name, err)
		}

		output := filepath.Join(tier.Dir, name)
		if err := s.storage.Save(output, &buf); err != nil {
			return nil, fmt.Errorf("%s: tier %s: failed to save: %w", name, tier.Name, err)
		}

		bounds := resized.Bounds()
		result.Outputs = append(result.Outputs, entity.TierOutput{
			Tier:   tier.Name,
			Path:   output,
			Width:  bounds.Dx(),
			Height: bounds.Dy(),
		})
		log.WithFields(logrus.Fields{
			"tier":   tier.Name,
			"width":  bounds.Dx(),
			"height": bounds.Dy(),
		}).Debug("Tier written")
	}

	if err := s.cache.SetDigest(ctx, name, digest); err != nil {
		log.Warnf("Failed to cache digest: %v", err)
	}

	event := entity.ResizeEvent{
		RunID:   runID,
		Name:    name,
		Digest:  digest,
		Outputs: result.Outputs,
		Time:    time.Now(),
	}
	if err := s.producer.Publish(ctx, event); err != nil {
		log.Warnf("Failed to publish resize event: %v", err)
	}

	log.Info("Resized")
	return result, nil
}

func (s *assetService) readSource(path string) ([]byte, error) {
	r, err := s.storage.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// upToDate is true when the cached digest matches and every tier output is
// still on disk.
func (s *assetService) upToDate(ctx context.Context, name, digest string) bool {
	cached, ok, err := s.cache.GetDigest(ctx, name)
	if err != nil {
		logrus.WithField("asset", name).Warnf("Failed to read digest cache: %v", err)
		return false
	}
	if !ok || cached != digest {
		return false
	}
	for _, tier := range s.opts.Tiers {
		if !s.storage.Exists(filepath.Join(tier.Dir, name)) {
			return false
		}
	}
	return true
}

func (s *assetService) describeOutput(tier entity.Tier, name string) (entity.TierOutput, bool) {
	path := filepath.Join(tier.Dir, name)
	r, err := s.storage.Open(path)
	if err != nil {
		return entity.TierOutput{}, false
	}
	defer r.Close()

	out := entity.TierOutput{Tier: tier.Name, Path: path}
	if cfg, _, err := image.DecodeConfig(r); err == nil {
		out.Width, out.Height = cfg.Width, cfg.Height
	}
	return out, true
}

func (s *assetService) checkDirs() error {
	if err := s.storage.EnsureDir(s.opts.SourceDir, false); err != nil {
		return fmt.Errorf("%w: %s", entity.ErrSourceDirMissing, s.opts.SourceDir)
	}
	for _, tier := range s.opts.Tiers {
		if err := s.storage.EnsureDir(tier.Dir, s.opts.CreateOutputDirs); err != nil {
			return fmt.Errorf("tier %s: %w", tier.Name, err)
		}
	}
	return nil
}

func (s *assetService) stage(ctx context.Context) error {
	return s.stager.Stage(ctx, s.tierDirs()...)
}

func (s *assetService) tierDirs() []string {
	dirs := make([]string, 0, len(s.opts.Tiers))
	for _, tier := range s.opts.Tiers {
		dirs = append(dirs, tier.Dir)
	}
	return dirs
}

func (s *assetService) sourcePath(name string) string {
	return filepath.Join(s.opts.SourceDir, name)
}

func (s *assetService) validateName(name string) error {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q", entity.ErrInvalidAssetName, name)
	}
	if s.Ignores(name) {
		return fmt.Errorf("%w: %s", entity.ErrIgnoredAsset, name)
	}
	return nil
}
