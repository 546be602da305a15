// Package advice turns device inventories into AI-generated energy advice.
//
// Each category follows the same flow: derive a cache key, probe the
// category cache, prompt the model once, pull the first JSON object out of
// the reply and cache it. What happens on failure depends on the category.
package advice

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"staticfund-api/internal/cache"
	"staticfund-api/internal/llm"
	"staticfund-api/internal/metrics"
	"staticfund-api/internal/tariff"
	"staticfund-api/pkg/logging/logging"
)

// Caches holds one cache per cached category. A nil cache disables caching
// for that category.
type Caches struct {
	Tips         cache.AdviceCache
	Habits       cache.AdviceCache
	Completeness cache.AdviceCache
	SolarQuotes  cache.AdviceCache
}

type Service struct {
	gen    llm.Generator
	caches Caches
	now    func() time.Time
}

type Option func(*Service)

// WithClock sets the clock used for seasonal tariffs.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(gen llm.Generator, caches Caches, opts ...Option) *Service {
	s := &Service{gen: gen, caches: caches, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// result is implemented by every decoded model reply.
type result interface {
	validate() error
}

// GetTips never fails: any AI or parse failure yields the offline tips,
// which are not cached.
func (s *Service) GetTips(ctx context.Context, devices []Device) TipsResult {
	key := cache.DeriveKey(keyFields(devices))

	var res TipsResult
	if s.fromCache(ctx, s.caches.Tips, key, &res) {
		res.Cached = true
		return res
	}

	rate := tariff.GetSeasonalRate("", s.now())
	req := &llm.GenerateRequest{Prompt: tipsPrompt(devices, rate)}
	if err := s.generate(ctx, CategoryTips, req, &res); err != nil {
		logging.L(ctx).Warn("tips generation failed, serving offline tips",
			zap.Error(err),
			zap.Bool("offline_fallback", true),
			zap.Int("devices", len(devices)),
		)
		metrics.OfflineFallbacksTotal.Inc()
		return OfflineTips(devices)
	}

	s.toCache(ctx, s.caches.Tips, key, res)
	return res
}

// Habits returns 5-7 behavioural habits for the inventory. Failures are
// returned to the caller.
func (s *Service) Habits(ctx context.Context, devices []Device) (HabitsResult, error) {
	key := cache.CategoryKey(string(CategoryHabits), keyFields(devices))

	var res HabitsResult
	if s.fromCache(ctx, s.caches.Habits, key, &res) {
		res.Cached = true
		return res, nil
	}

	req := &llm.GenerateRequest{Prompt: habitsPrompt(devices)}
	if err := s.generate(ctx, CategoryHabits, req, &res); err != nil {
		return HabitsResult{}, err
	}

	s.toCache(ctx, s.caches.Habits, key, res)
	return res, nil
}

// Completeness lists likely missing appliances. On failure it returns an
// empty list, uncached.
func (s *Service) Completeness(ctx context.Context, devices []Device) CompletenessResult {
	key := cache.CategoryKey(string(CategoryCompleteness), keyFields(devices))

	var res CompletenessResult
	if s.fromCache(ctx, s.caches.Completeness, key, &res) {
		res.Cached = true
		return res
	}

	req := &llm.GenerateRequest{Prompt: completenessPrompt(devices)}
	if err := s.generate(ctx, CategoryCompleteness, req, &res); err != nil {
		logging.L(ctx).Warn("completeness check failed", zap.Error(err))
		return CompletenessResult{MissingItems: []MissingItem{}}
	}

	s.toCache(ctx, s.caches.Completeness, key, res)
	return res
}

// Interview asks about the single most likely missing appliance. It returns
// nil when the model considers the inventory complete or when anything fails.
func (s *Service) Interview(ctx context.Context, devices []Device) *InterviewQuestion {
	text, err := s.complete(ctx, CategoryInterview, &llm.GenerateRequest{Prompt: interviewPrompt(devices)})
	if err != nil {
		logging.L(ctx).Warn("interview generation failed", zap.Error(err))
		return nil
	}
	if isNullAnswer(text) {
		metrics.AIRequestsTotal.WithLabelValues(string(CategoryInterview), "ok").Inc()
		return nil
	}

	var q InterviewQuestion
	if err := s.parse(CategoryInterview, text, &q); err != nil {
		logging.L(ctx).Warn("interview reply unusable", zap.Error(err))
		return nil
	}
	return &q
}

// OnboardQuestion picks the next household-profile question, or nil once
// the profile is complete or generation fails.
func (s *Service) OnboardQuestion(ctx context.Context, h Household, devices []Device) *OnboardQuestion {
	text, err := s.complete(ctx, CategoryOnboard, &llm.GenerateRequest{Prompt: onboardPrompt(h, devices)})
	if err != nil {
		logging.L(ctx).Warn("onboarding question failed", zap.Error(err))
		return nil
	}
	if isNullAnswer(text) {
		metrics.AIRequestsTotal.WithLabelValues(string(CategoryOnboard), "ok").Inc()
		return nil
	}

	var q OnboardQuestion
	if err := s.parse(CategoryOnboard, text, &q); err != nil {
		logging.L(ctx).Warn("onboarding reply unusable", zap.Error(err))
		return nil
	}
	return &q
}

// SolarQuotes sizes BASIC, STANDARD and PREMIUM packages for the household.
// The key covers location and season as well as the devices, since both
// feed the prompt.
func (s *Service) SolarQuotes(ctx context.Context, h Household, devices []Device) (SolarQuotesResult, error) {
	now := s.now()
	rate := tariff.GetSeasonalRate(h.Location(), now)
	scope := fmt.Sprintf("solar_%s_%s", strings.ToLower(strings.TrimSpace(h.Location())), rate.Season)
	key := cache.CategoryKey(scope, keyFields(devices))

	var res SolarQuotesResult
	if s.fromCache(ctx, s.caches.SolarQuotes, key, &res) {
		res.Cached = true
		return res, nil
	}

	daily, peak := DailyLoad(devices)
	sun := tariff.PeakSunHours(h.Province)

	req := &llm.GenerateRequest{Prompt: solarPrompt(devices, h, rate, daily, peak, sun)}
	if err := s.generate(ctx, CategorySolarQuotes, req, &res); err != nil {
		return SolarQuotesResult{}, err
	}
	res.DailyKWh = daily
	res.PeakLoadWatts = peak
	res.PeakSunHours = sun
	res.Tariff = rate

	s.toCache(ctx, s.caches.SolarQuotes, key, res)
	return res, nil
}

// ScanDevice identifies an appliance from a photo. Never cached.
func (s *Service) ScanDevice(ctx context.Context, image []byte, mimeType string) (ScanResult, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := &llm.GenerateRequest{
		Prompt: scanPrompt,
		Image:  &llm.InlineImage{Data: image, MIMEType: mimeType},
	}

	var res ScanResult
	if err := s.generate(ctx, CategoryScan, req, &res); err != nil {
		return ScanResult{}, err
	}
	return res, nil
}

// CacheStats reports every configured category cache.
func (s *Service) CacheStats() map[Category]cache.Stats {
	out := make(map[Category]cache.Stats, 4)
	for cat, c := range map[Category]cache.AdviceCache{
		CategoryTips:         s.caches.Tips,
		CategoryHabits:       s.caches.Habits,
		CategoryCompleteness: s.caches.Completeness,
		CategorySolarQuotes:  s.caches.SolarQuotes,
	} {
		if c != nil {
			out[cat] = c.Stats()
		}
	}
	return out
}

// DailyLoad returns average daily kWh and the summed running watts.
// Missing days per week counts as every day.
func DailyLoad(devices []Device) (kwh, peakWatts float64) {
	for _, d := range devices {
		days := d.DaysPerWeek
		if days <= 0 {
			days = 7
		}
		kwh += d.Watts * d.HoursPerDay * days / 7 / 1000
		peakWatts += d.Watts
	}
	return kwh, peakWatts
}

func (s *Service) generate(ctx context.Context, category Category, req *llm.GenerateRequest, out result) error {
	text, err := s.complete(ctx, category, req)
	if err != nil {
		return err
	}
	return s.parse(category, text, out)
}

// complete makes exactly one model call.
func (s *Service) complete(ctx context.Context, category Category, req *llm.GenerateRequest) (string, error) {
	start := time.Now()
	text, err := s.gen.Generate(ctx, req)
	elapsed := time.Since(start)
	metrics.AIRequestDurationSeconds.WithLabelValues(string(category)).Observe(elapsed.Seconds())

	if err != nil {
		metrics.AIRequestsTotal.WithLabelValues(string(category), "transport_error").Inc()
		return "", fmt.Errorf("%s: generate: %w", category, err)
	}

	logging.L(ctx).Debug("ai_reply",
		zap.String("category", string(category)),
		zap.Duration("latency", elapsed),
		zap.Int("reply_bytes", len(text)),
	)
	return text, nil
}

func (s *Service) parse(category Category, text string, out result) error {
	if err := decodeModelJSON(text, out); err != nil {
		metrics.AIRequestsTotal.WithLabelValues(string(category), "parse_error").Inc()
		return fmt.Errorf("%s: %w", category, err)
	}
	if err := out.validate(); err != nil {
		metrics.AIRequestsTotal.WithLabelValues(string(category), "parse_error").Inc()
		return fmt.Errorf("%s: %w", category, err)
	}
	metrics.AIRequestsTotal.WithLabelValues(string(category), "ok").Inc()
	return nil
}

// fromCache decodes a cached value into out. A corrupt entry is treated as
// a miss.
func (s *Service) fromCache(ctx context.Context, c cache.AdviceCache, key string, out any) bool {
	if c == nil {
		return false
	}
	b, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, out); err != nil {
		logging.L(ctx).Warn("cached advice undecodable", zap.String("cache_key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *Service) toCache(ctx context.Context, c cache.AdviceCache, key string, v any) {
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		logging.L(ctx).Warn("advice not cacheable", zap.String("cache_key", key), zap.Error(err))
		return
	}
	c.Set(ctx, key, b)
}
