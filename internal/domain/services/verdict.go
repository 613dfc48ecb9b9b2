package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"phalanx/internal/domain/models"
	"phalanx/internal/streaming"
	"phalanx/pkg/logger"
)

// Classification thresholds applied to the sensitivity-adjusted score.
const (
	redThreshold   = 70.0
	amberThreshold = 30.0
)

// signalWeights fixes the deterministic weight for every signal code.
// HIGH_RISK_TLD is tiered and handled separately.
var signalWeights = map[models.SignalCode]int{
	models.SignalUserInfoInURL:       100,
	models.SignalBlockedByRule:       100,
	models.SignalReputationMalicious: 80,
	models.SignalBrandImpersonation:  60,
	models.SignalHomoglyphDomain:     40,
	models.SignalRawIPHost:           35,
	models.SignalSenderUnverified:    35,
	models.SignalShortenerExpanded:   30,
	models.SignalHTTPScheme:          25,
	models.SignalPunycodeHost:        25,
	models.SignalSuspiciousPath:      20,
	models.SignalNonstandardPort:     15,
}

var tldRiskWeights = map[models.TLDRisk]int{
	models.TLDRiskCritical: 30,
	models.TLDRiskHigh:     20,
	models.TLDRiskMedium:   10,
}

// reasonTemplates maps each signal code to its fixed human-readable
// explanation.
var reasonTemplates = map[models.SignalCode]string{
	models.SignalUserInfoInURL:       "Link hides its real destination behind embedded credentials",
	models.SignalBlockedByRule:       "Blocked by a user-defined rule",
	models.SignalReputationMalicious: "Link is flagged as malicious by a threat-intelligence service",
	models.SignalBrandImpersonation:  "Link domain impersonates a well-known brand",
	models.SignalHomoglyphDomain:     "Link domain mixes look-alike characters from different scripts",
	models.SignalRawIPHost:           "Link points at a raw IP address instead of a domain",
	models.SignalSenderUnverified:    "Sender claims a known brand but is not a verified sender",
	models.SignalHighRiskTLD:         "Link uses a domain ending with a high abuse rate",
	models.SignalShortenerExpanded:   "Shortened link redirects to a different destination",
	models.SignalHTTPScheme:          "Link uses an unencrypted http connection",
	models.SignalPunycodeHost:        "Link uses an encoded international domain name",
	models.SignalSuspiciousPath:      "Link path contains wording typical of credential phishing",
	models.SignalNonstandardPort:     "Link uses a non-standard network port",
}

// VerdictEngine orchestrates the full analysis pipeline for one message and
// produces the final classification. It never returns an error: any
// downstream failure only removes signals from consideration.
type VerdictEngine struct {
	profiler   *DomainProfiler
	expander   *URLExpander
	reputation *ReputationAggregator
	rules      *RuleEngine
	packs      *SenderPackRepository
	extractor  *LinkExtractor
	bus        EventPublisher
	log        *logger.Logger
}

// NewVerdictEngine wires the pipeline together. packs and bus may be nil.
func NewVerdictEngine(
	profiler *DomainProfiler,
	expander *URLExpander,
	reputation *ReputationAggregator,
	rules *RuleEngine,
	packs *SenderPackRepository,
	extractor *LinkExtractor,
	bus EventPublisher,
	log *logger.Logger,
) *VerdictEngine {
	return &VerdictEngine{
		profiler:   profiler,
		expander:   expander,
		reputation: reputation,
		rules:      rules,
		packs:      packs,
		extractor:  extractor,
		bus:        bus,
		log:        log.WithComponent("verdict_engine"),
	}
}

// Analyze classifies one message under the given rule set and sensitivity.
// The verdict's Score is always the raw pre-sensitivity sum; only Level
// reflects the sensitivity adjustment.
func (e *VerdictEngine) Analyze(ctx context.Context, msg models.Message, rules []models.AllowBlockRule, sensitivity models.Sensitivity) *models.Verdict {
	log := e.log.WithMessageID(msg.ID.String())

	links := msg.Links
	if len(links) == 0 && e.extractor != nil {
		links = e.extractor.ExtractLinks(msg.Body)
	}

	primaryDomain := ""
	if len(links) > 0 {
		primaryDomain = links[0].RegisteredDomain
	}

	decision := e.rules.Evaluate(rules, primaryDomain, msg.Sender, msg.Body)
	if decision == models.DecisionBlock {
		v := e.finish(ctx, msg, models.VerdictRed, signalWeights[models.SignalBlockedByRule], []models.Signal{{
			Code:   models.SignalBlockedByRule,
			Weight: signalWeights[models.SignalBlockedByRule],
		}})
		log.Info().Str("level", string(v.Level)).Msg("message blocked by rule")
		return v
	}

	signals := e.collectSignals(ctx, msg, links)

	rawScore := 0
	hasCritical := false
	for _, s := range signals {
		rawScore += s.Weight
		if s.IsCritical() {
			hasCritical = true
		}
	}

	if decision == models.DecisionAllow && !hasCritical {
		v := e.finish(ctx, msg, models.VerdictGreen, 0, nil)
		log.Info().Msg("message allowed by rule")
		return v
	}

	effective := adjustForSensitivity(float64(rawScore), sensitivity)
	level := models.VerdictGreen
	switch {
	case hasCritical, effective >= redThreshold:
		level = models.VerdictRed
	case effective >= amberThreshold:
		level = models.VerdictAmber
	}

	v := e.finish(ctx, msg, level, rawScore, signals)
	log.Info().
		Str("level", string(level)).
		Int("score", rawScore).
		Int("signals", len(signals)).
		Msg("verdict issued")
	return v
}

// collectSignals gathers signals from every link plus sender verification,
// deduplicated by code across the whole message. The original link and its
// expanded destination are both profiled.
func (e *VerdictEngine) collectSignals(ctx context.Context, msg models.Message, links []models.Link) []models.Signal {
	byCode := make(map[models.SignalCode]models.Signal)

	add := func(s models.Signal) {
		if existing, ok := byCode[s.Code]; !ok || s.Weight > existing.Weight {
			byCode[s.Code] = s
		}
	}

	for _, link := range links {
		profile := e.profiler.Profile(link)
		for _, s := range profileSignals(profile) {
			add(s)
		}

		reputationTarget := link.Normalized
		if e.expander != nil {
			expanded, err := e.expander.Expand(ctx, link.Normalized)
			switch {
			case err != nil:
				e.log.Debug().Err(err).Str("url", link.Normalized).Msg("url expansion failed")
			case expanded.WasRedirected():
				reputationTarget = expanded.FinalURL
				if IsShortener(link.Host) {
					add(models.Signal{
						Code:   models.SignalShortenerExpanded,
						Weight: signalWeights[models.SignalShortenerExpanded],
						Metadata: map[string]string{
							"original": link.Normalized,
							"final":    expanded.FinalURL,
						},
					})
				}
				if e.extractor != nil {
					if finalLink, err := e.extractor.ParseLink(expanded.FinalURL); err == nil {
						for _, s := range profileSignals(e.profiler.Profile(finalLink)) {
							add(s)
						}
					}
				}
			}
		}

		if e.reputation != nil {
			for _, result := range e.reputation.Check(ctx, reputationTarget) {
				if result.Malicious {
					add(models.Signal{
						Code:   models.SignalReputationMalicious,
						Weight: signalWeights[models.SignalReputationMalicious],
						Metadata: map[string]string{
							"service":     result.Service,
							"threat_type": result.ThreatType,
						},
					})
				}
			}
		}
	}

	for _, s := range e.senderSignals(msg) {
		add(s)
	}

	signals := make([]models.Signal, 0, len(byCode))
	for _, s := range byCode {
		signals = append(signals, s)
	}
	sortSignals(signals)
	return signals
}

// senderSignals flags messages invoking a protected brand from a sender the
// active pack does not recognize.
func (e *VerdictEngine) senderSignals(msg models.Message) []models.Signal {
	if e.packs == nil || msg.Sender == "" {
		return nil
	}
	brands := e.packs.MatchBrandKeywords(msg.Body)
	if len(brands) == 0 || e.packs.IsKnownSender(msg.Sender) {
		return nil
	}
	return []models.Signal{{
		Code:   models.SignalSenderUnverified,
		Weight: signalWeights[models.SignalSenderUnverified],
		Metadata: map[string]string{
			"sender": msg.Sender,
			"brand":  brands[0],
		},
	}}
}

// profileSignals converts one domain profile into its weighted signals.
func profileSignals(p models.DomainProfile) []models.Signal {
	var signals []models.Signal
	add := func(code models.SignalCode, meta map[string]string) {
		signals = append(signals, models.Signal{Code: code, Weight: signalWeights[code], Metadata: meta})
	}

	if p.HasUserInfo {
		add(models.SignalUserInfoInURL, map[string]string{"host": p.Host})
	}
	if p.Scheme == "http" {
		add(models.SignalHTTPScheme, nil)
	}
	if p.IsPunycode {
		add(models.SignalPunycodeHost, map[string]string{"host": p.Host})
	}
	if p.IsRawIP {
		add(models.SignalRawIPHost, map[string]string{"host": p.Host})
	}
	if p.HomoglyphSuspect {
		add(models.SignalHomoglyphDomain, map[string]string{"host": p.Host})
	}
	if len(p.SuspiciousPaths) > 0 {
		add(models.SignalSuspiciousPath, map[string]string{"keywords": strings.Join(p.SuspiciousPaths, ",")})
	}
	if p.NonStandardPort != "" {
		add(models.SignalNonstandardPort, map[string]string{"port": p.NonStandardPort})
	}
	if p.Impersonation != nil {
		add(models.SignalBrandImpersonation, map[string]string{
			"brand":    p.Impersonation.Brand,
			"type":     string(p.Impersonation.Type),
			"official": p.Impersonation.OfficialDomain,
		})
	}
	if w, ok := tldRiskWeights[p.TLDRisk]; ok {
		signals = append(signals, models.Signal{
			Code:     models.SignalHighRiskTLD,
			Weight:   w,
			Metadata: map[string]string{"domain": p.RegisteredDomain, "tier": string(p.TLDRisk)},
		})
	}
	return signals
}

// adjustForSensitivity maps the raw score to the effective score the
// thresholds apply to.
func adjustForSensitivity(raw float64, sensitivity models.Sensitivity) float64 {
	switch sensitivity {
	case models.SensitivityLow:
		return raw / 0.7
	case models.SensitivityHigh:
		return raw * 1.3
	}
	return raw
}

// finish assembles the verdict, publishes it, and returns it.
func (e *VerdictEngine) finish(ctx context.Context, msg models.Message, level models.VerdictLevel, score int, signals []models.Signal) *models.Verdict {
	v := &models.Verdict{
		MessageID: msg.ID,
		Level:     level,
		Score:     score,
		Reasons:   buildReasons(signals),
		CreatedAt: time.Now().UTC(),
	}
	if e.bus != nil {
		if err := e.bus.Publish(ctx, streaming.NewVerdictIssuedEvent(v)); err != nil {
			e.log.Warn().Err(err).Msg("failed to publish verdict event")
		}
	}
	return v
}

// buildReasons takes the three highest-weight signals and renders their fixed
// templates.
func buildReasons(signals []models.Signal) []models.Reason {
	if len(signals) == 0 {
		return nil
	}
	sorted := make([]models.Signal, len(signals))
	copy(sorted, signals)
	sortSignals(sorted)

	n := len(sorted)
	if n > 3 {
		n = 3
	}
	reasons := make([]models.Reason, 0, n)
	for _, s := range sorted[:n] {
		desc, ok := reasonTemplates[s.Code]
		if !ok {
			desc = fmt.Sprintf("Risk indicator %s", s.Code)
		}
		reasons = append(reasons, models.Reason{
			Code:        s.Code,
			Weight:      s.Weight,
			Description: desc,
		})
	}
	return reasons
}

// sortSignals orders by weight descending, code ascending for determinism.
func sortSignals(signals []models.Signal) {
	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Weight != signals[j].Weight {
			return signals[i].Weight > signals[j].Weight
		}
		return signals[i].Code < signals[j].Code
	})
}
