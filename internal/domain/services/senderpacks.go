package services

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"phalanx/internal/domain/models"
	"phalanx/internal/streaming"
	"phalanx/pkg/logger"
)

// ErrPackNotFound reports that no signed pack document exists for a region.
var ErrPackNotFound = errors.New("sender pack not found")

// PackSource returns the raw signed JSON document for a region. It may be
// bundled offline data or a remote fetch; the repository does not care which.
type PackSource interface {
	Fetch(ctx context.Context, region string) ([]byte, error)
}

// DirPackSource reads pack documents from a directory of <region>.json files.
type DirPackSource struct {
	Dir string
}

func (s *DirPackSource) Fetch(_ context.Context, region string) ([]byte, error) {
	if !regionRe.MatchString(region) {
		return nil, fmt.Errorf("%w: invalid region %q", ErrPackNotFound, region)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, region+".json"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: region %s", ErrPackNotFound, region)
	}
	return data, err
}

// HTTPPackSource fetches pack documents from a remote base URL.
type HTTPPackSource struct {
	BaseURL string
	Client  *http.Client
}

func (s *HTTPPackSource) Fetch(ctx context.Context, region string) ([]byte, error) {
	if !regionRe.MatchString(region) {
		return nil, fmt.Errorf("%w: invalid region %q", ErrPackNotFound, region)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		strings.TrimSuffix(s.BaseURL, "/")+"/"+region+".json", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: region %s", ErrPackNotFound, region)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pack fetch returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

var regionRe = regexp.MustCompile(`^[a-z]{2}(-[a-z0-9]{1,8})?$`)

// SenderPackRepository holds the single active sender pack per process.
// Loading a region is all-or-nothing: any failure leaves the previous pack
// active. Compiled patterns are discarded on swap and recompiled lazily.
type SenderPackRepository struct {
	source    PackSource
	publicKey ed25519.PublicKey
	bus       EventPublisher
	log       *logger.Logger

	mu     sync.RWMutex
	active *models.SenderPack

	compiledMu sync.Mutex
	compiled   map[int]*regexp.Regexp
}

// NewSenderPackRepository creates a repository in the Unloaded state. bus may
// be nil.
func NewSenderPackRepository(source PackSource, publicKey ed25519.PublicKey, bus EventPublisher, log *logger.Logger) *SenderPackRepository {
	return &SenderPackRepository{
		source:    source,
		publicKey: publicKey,
		bus:       bus,
		log:       log.WithComponent("sender_packs"),
	}
}

// canonicalEntry fixes the serialized field order for signature computation.
type canonicalEntry struct {
	Pattern  string   `json:"pattern"`
	Brand    string   `json:"brand"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords,omitempty"`
}

type canonicalPack struct {
	Region  string           `json:"region"`
	Version int64            `json:"version"`
	Entries []canonicalEntry `json:"entries"`
}

// canonicalJSON reconstructs the byte form the pack was signed over: an
// ordered object of region, version, entries with the signature excluded and
// compact separators.
func canonicalJSON(pack *models.SenderPack) ([]byte, error) {
	c := canonicalPack{
		Region:  pack.Region,
		Version: pack.Version,
		Entries: make([]canonicalEntry, len(pack.Entries)),
	}
	for i, e := range pack.Entries {
		c.Entries[i] = canonicalEntry{
			Pattern:  e.Pattern,
			Brand:    e.Brand,
			Type:     string(e.Type),
			Keywords: e.Keywords,
		}
	}
	return json.Marshal(c)
}

// isPlaceholderSignature reports a signature consisting entirely of the digit
// zero, accepted unconditionally as a development placeholder.
func isPlaceholderSignature(sig string) bool {
	if sig == "" {
		return false
	}
	for _, r := range sig {
		if r != '0' {
			return false
		}
	}
	return true
}

// LoadPack fetches, parses, verifies, and activates the pack for region.
func (r *SenderPackRepository) LoadPack(ctx context.Context, region string) error {
	log := r.log.WithRegion(region)

	raw, err := r.source.Fetch(ctx, region)
	if err != nil {
		if errors.Is(err, ErrPackNotFound) {
			return err
		}
		return fmt.Errorf("sender pack fetch failed for region %s: %w", region, err)
	}

	pack, err := parsePack(region, raw)
	if err != nil {
		return err
	}

	if isPlaceholderSignature(pack.Signature) {
		log.Warn().
			Int64("version", pack.Version).
			Msg("sender pack carries a development placeholder signature")
	} else {
		canonical, err := canonicalJSON(pack)
		if err != nil {
			return &models.PackParseError{Region: region, Err: err}
		}
		sig, err := hex.DecodeString(pack.Signature)
		if err != nil || len(sig) != ed25519.SignatureSize {
			return &models.PackVerificationError{Region: region, Version: pack.Version}
		}
		if !ed25519.Verify(r.publicKey, canonical, sig) {
			return &models.PackVerificationError{Region: region, Version: pack.Version}
		}
	}

	r.mu.Lock()
	r.active = pack
	r.mu.Unlock()

	r.compiledMu.Lock()
	r.compiled = make(map[int]*regexp.Regexp, len(pack.Entries))
	r.compiledMu.Unlock()

	log.Info().
		Int64("version", pack.Version).
		Int("entries", len(pack.Entries)).
		Msg("sender pack loaded")

	if r.bus != nil {
		if err := r.bus.Publish(ctx, streaming.NewPackLoadedEvent(region, pack.Version)); err != nil {
			log.Warn().Err(err).Msg("failed to publish pack loaded event")
		}
	}
	return nil
}

// parsePack strictly decodes and validates a raw pack document.
func parsePack(region string, raw []byte) (*models.SenderPack, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var pack models.SenderPack
	if err := dec.Decode(&pack); err != nil {
		return nil, &models.PackParseError{Region: region, Err: err}
	}
	if pack.Region == "" || pack.Version <= 0 {
		return nil, &models.PackParseError{Region: region, Err: errors.New("missing region or version")}
	}
	if len(pack.Entries) == 0 {
		return nil, &models.PackParseError{Region: region, Err: errors.New("pack has no entries")}
	}
	for i, e := range pack.Entries {
		if e.Pattern == "" {
			return nil, &models.PackParseError{Region: region, Err: fmt.Errorf("entry %d has empty pattern", i)}
		}
		if !models.ValidSenderCategory(e.Type) {
			return nil, &models.PackParseError{Region: region, Err: fmt.Errorf("entry %d has unknown category %q", i, e.Type)}
		}
	}
	return &pack, nil
}

// ActivePack returns the currently active pack, or nil when unloaded. The
// returned pack remains valid for in-flight callers across a reload.
func (r *SenderPackRepository) ActivePack() *models.SenderPack {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// FindMatchingSenders evaluates every entry's pattern as a full-string match
// against the sender ID and returns all that match. Patterns that fail to
// compile are skipped.
func (r *SenderPackRepository) FindMatchingSenders(senderID string) []models.SenderPackEntry {
	pack := r.ActivePack()
	if pack == nil {
		return nil
	}

	var matches []models.SenderPackEntry
	for i, entry := range pack.Entries {
		re := r.pattern(i, entry.Pattern)
		if re == nil {
			continue
		}
		if re.MatchString(senderID) {
			matches = append(matches, entry)
		}
	}
	return matches
}

// IsKnownSender reports whether any pack entry matches the sender ID.
func (r *SenderPackRepository) IsKnownSender(senderID string) bool {
	return len(r.FindMatchingSenders(senderID)) > 0
}

// MatchBrandKeywords returns the distinct brands whose name or keywords
// appear in the message body.
func (r *SenderPackRepository) MatchBrandKeywords(body string) []string {
	pack := r.ActivePack()
	if pack == nil {
		return nil
	}
	lower := strings.ToLower(body)
	seen := make(map[string]struct{})
	var brands []string
	for _, entry := range pack.Entries {
		if _, ok := seen[entry.Brand]; ok {
			continue
		}
		matched := entry.Brand != "" && strings.Contains(lower, strings.ToLower(entry.Brand))
		for _, kw := range entry.Keywords {
			if matched {
				break
			}
			matched = kw != "" && strings.Contains(lower, strings.ToLower(kw))
		}
		if matched {
			seen[entry.Brand] = struct{}{}
			brands = append(brands, entry.Brand)
		}
	}
	return brands
}

// pattern returns the lazily compiled, full-string-anchored expression for
// entry i.
func (r *SenderPackRepository) pattern(i int, raw string) *regexp.Regexp {
	r.compiledMu.Lock()
	defer r.compiledMu.Unlock()

	if r.compiled == nil {
		r.compiled = make(map[int]*regexp.Regexp)
	}
	if re, ok := r.compiled[i]; ok {
		return re
	}
	re, err := regexp.Compile("^(?:" + raw + ")$")
	if err != nil {
		r.log.Warn().Err(err).Str("pattern", raw).Msg("sender pack pattern failed to compile")
		re = nil
	}
	r.compiled[i] = re
	return re
}
