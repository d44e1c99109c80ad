package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pagetrack/internal/modules/sink/domain"
	"pagetrack/internal/modules/sink/dto"
	sinkout "pagetrack/internal/modules/sink/port/out"
)

type fileStamp struct {
	size    int64
	modTime time.Time
	sha256  string
}

type SinkService struct {
	store  sinkout.ManifestStore
	host   sinkout.Host
	logger *slog.Logger

	mu       sync.Mutex
	verified map[string]fileStamp
}

func NewSinkService(store sinkout.ManifestStore, host sinkout.Host, logger *slog.Logger) *SinkService {
	return &SinkService{store: store, host: host, logger: logger, verified: map[string]fileStamp{}}
}

func (s *SinkService) List(ctx context.Context) ([]dto.SinkInfo, error) {
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SinkInfo, 0, len(manifests))
	for _, m := range manifests {
		out = append(out, dto.SinkInfo{Name: m.Name, Version: m.Version, Enabled: m.Enabled, Binary: m.Binary})
	}
	return out, nil
}

func (s *SinkService) Doctor(ctx context.Context) ([]dto.DoctorResult, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]dto.DoctorResult, 0, len(manifests))
	for _, m := range manifests {
		result := dto.DoctorResult{Name: m.Name}
		if err := m.Validate(); err != nil {
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		binaryOK := fileExists(m.Binary)
		result.BinaryReachable = binaryOK
		checksumOK := false
		if binaryOK {
			checksumOK = s.checksumMatches(m.Binary, m.SHA256) == nil
		}
		result.ChecksumValid = checksumOK
		if binaryOK && checksumOK && m.Enabled && s.host != nil {
			meta, err := s.host.GetMetadata(ctx, m)
			switch {
			case err != nil:
				result.Error = err.Error()
			case meta.Name != m.Name:
				result.Error = fmt.Sprintf("sink reports name %q", meta.Name)
			default:
				result.LifecycleOK = true
			}
		}
		if !binaryOK {
			result.Error = fmt.Sprintf("binary does not exist: %s", m.Binary)
		}
		if binaryOK && !checksumOK {
			result.Error = "checksum mismatch"
		}
		results = append(results, result)
	}
	return results, nil
}

// Deliver fans session out to every enabled sink. One failing sink never
// blocks the others.
func (s *SinkService) Deliver(ctx context.Context, session domain.Session) ([]string, map[string]error, error) {
	if err := session.Validate(); err != nil {
		return nil, nil, err
	}
	manifests, err := s.loadValidated(ctx)
	if err != nil {
		return nil, nil, err
	}
	var (
		delivered []string
		failed    = map[string]error{}
	)
	for _, m := range manifests {
		if !m.Enabled {
			continue
		}
		if err := s.checksumMatches(m.Binary, m.SHA256); err != nil {
			failed[m.Name] = err
			continue
		}
		if err := s.host.Deliver(ctx, m, session); err != nil {
			failed[m.Name] = err
			continue
		}
		delivered = append(delivered, m.Name)
	}
	for name, err := range failed {
		s.logger.Warn("sink delivery failed", "sink", name, "session_id", session.ID, "err", err)
	}
	return delivered, failed, nil
}

func (s *SinkService) Close() error {
	if s.host == nil {
		return nil
	}
	return s.host.Close()
}

func (s *SinkService) loadValidated(ctx context.Context) ([]domain.Manifest, error) {
	manifests, err := s.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	seenNames := map[string]struct{}{}
	for _, manifest := range manifests {
		if err := manifest.Validate(); err != nil {
			return nil, err
		}
		if _, ok := seenNames[manifest.Name]; ok {
			return nil, fmt.Errorf("duplicate sink name: %s", manifest.Name)
		}
		seenNames[manifest.Name] = struct{}{}
	}
	return manifests, nil
}

// checksumMatches hashes the binary once per size and mtime; a replaced
// binary is hashed again.
func (s *SinkService) checksumMatches(path string, expected string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat sink binary: %w", err)
	}
	s.mu.Lock()
	stamp, ok := s.verified[path]
	s.mu.Unlock()
	if !ok || stamp.size != info.Size() || !stamp.modTime.Equal(info.ModTime()) {
		sum, err := hashFile(path)
		if err != nil {
			return err
		}
		stamp = fileStamp{size: info.Size(), modTime: info.ModTime(), sha256: sum}
		s.mu.Lock()
		s.verified[path] = stamp
		s.mu.Unlock()
	}
	if stamp.sha256 != expected {
		return fmt.Errorf("%w: %s", domain.ErrChecksumMismatch, filepath.Base(path))
	}
	return nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("read sink binary: %w", err)
	}
	defer f.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("read sink binary: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// JoinFailures flattens per-sink failures into one error, or nil.
func JoinFailures(failed map[string]error) error {
	errs := make([]error, 0, len(failed))
	for name, err := range failed {
		errs = append(errs, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(errs...)
}
