package app

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/ming198921/taoli5.1-sub000/business/market/domain"
	"github.com/ming198921/taoli5.1-sub000/internal/logger"
)

// Parsing strategy tags recorded on ParsedPair.Format.
const (
	FormatFrequency  = "frequency"
	FormatPattern    = "pattern"
	FormatHeuristic  = "heuristic"
	FormatPositional = "positional"
)

// ResolverConfig holds symbol resolution settings.
type ResolverConfig struct {
	MinConfidence float64
	CacheTTL      time.Duration
}

// DefaultResolverConfig returns the standard resolution thresholds.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MinConfidence: 0.75,
		CacheTTL:      5 * time.Minute,
	}
}

type resolveEntry struct {
	pair domain.ParsedPair
	ok   bool
	at   time.Time
}

// SymbolResolver parses raw exchange symbols into (base, quote) pairs.
// Four independent strategies run per symbol and the highest-confidence
// result wins; anything below MinConfidence is dropped.
type SymbolResolver struct {
	cfg   ResolverConfig
	freqs *QuoteFrequencies
	log   logger.LoggerInterface

	cacheMu sync.RWMutex
	cache   map[string]resolveEntry
}

// NewSymbolResolver creates a resolver backed by the shared frequency table.
func NewSymbolResolver(cfg ResolverConfig, freqs *QuoteFrequencies, log logger.LoggerInterface) *SymbolResolver {
	if cfg.MinConfidence <= 0 {
		cfg.MinConfidence = 0.75
	}
	return &SymbolResolver{
		cfg:   cfg,
		freqs: freqs,
		log:   log,
		cache: make(map[string]resolveEntry),
	}
}

// Resolve parses raw into a currency pair. ok is false when no strategy
// reaches the confidence floor.
func (r *SymbolResolver) Resolve(raw string) (*domain.ParsedPair, bool) {
	if entry, hit := r.cached(raw); hit {
		if !entry.ok {
			return nil, false
		}
		pair := entry.pair
		return &pair, true
	}

	pair, ok := r.resolve(raw)
	r.store(raw, pair, ok)
	if !ok {
		return nil, false
	}
	return &pair, true
}

func (r *SymbolResolver) resolve(raw string) (domain.ParsedPair, bool) {
	sym := normalizeSymbol(raw)
	if len(sym) < 4 || len(sym) > 20 {
		return domain.ParsedPair{}, false
	}

	best := domain.ParsedPair{}
	consider := func(candidate domain.ParsedPair) {
		if candidate.Confidence > best.Confidence {
			best = candidate
		}
	}

	consider(r.byFrequency(sym))
	consider(r.byPattern(sym))
	consider(r.byHeuristic(sym))
	consider(r.byPositional(sym))

	if best.Confidence < r.cfg.MinConfidence {
		r.log.Debug(context.Background(), "symbol below confidence floor",
			"symbol", raw, "best_confidence", best.Confidence, "floor", r.cfg.MinConfidence)
		return domain.ParsedPair{}, false
	}
	return best, true
}

// byFrequency tries the most common previously-observed quotes as suffixes.
func (r *SymbolResolver) byFrequency(sym string) domain.ParsedPair {
	best := domain.ParsedPair{}
	for _, quote := range r.freqs.Top(10) {
		if !strings.HasSuffix(sym, quote) || len(sym) <= len(quote) {
			continue
		}
		base := sym[:len(sym)-len(quote)]
		if !validToken(base) || !validToken(quote) {
			continue
		}
		conf := 0.80 + r.freqs.ConfidenceBoost(r.freqs.Count(quote))
		if conf > 0.98 {
			conf = 0.98
		}
		if conf > best.Confidence {
			best = domain.ParsedPair{Base: base, Quote: quote, Confidence: conf, Format: FormatFrequency}
		}
	}
	return best
}

// byPattern matches a few generic symbol shapes, each carrying a fixed base
// confidence, then splits at the common quote lengths.
func (r *SymbolResolver) byPattern(sym string) domain.ParsedPair {
	conf := 0.0
	switch {
	case leadingDigits(sym) && len(sym) >= 6:
		// Numeric-prefixed token such as a rebased asset name.
		conf = 0.78
	case strings.HasPrefix(sym, "W") && len(sym) >= 7:
		// Wrapped-asset prefix.
		conf = 0.76
	case len(sym) >= 11:
		// Long-name token.
		conf = 0.68
	case allAlpha(sym) && len(sym) >= 6 && len(sym) <= 10:
		// Plain alphabetic symbol.
		conf = 0.72
	default:
		return domain.ParsedPair{}
	}

	for _, quoteLen := range []int{4, 3} {
		if len(sym) <= quoteLen {
			continue
		}
		base, quote := sym[:len(sym)-quoteLen], sym[len(sym)-quoteLen:]
		if validToken(base) && validToken(quote) {
			return domain.ParsedPair{Base: base, Quote: quote, Confidence: conf, Format: FormatPattern}
		}
	}
	return domain.ParsedPair{}
}

// byHeuristic tries every plausible quote-length split and scores both
// halves on character composition.
func (r *SymbolResolver) byHeuristic(sym string) domain.ParsedPair {
	best := domain.ParsedPair{}
	for quoteLen := 3; quoteLen <= 6; quoteLen++ {
		if len(sym) <= quoteLen {
			break
		}
		base, quote := sym[:len(sym)-quoteLen], sym[len(sym)-quoteLen:]
		if !validToken(base) || !validToken(quote) {
			continue
		}
		conf := (tokenScore(base) + tokenScore(quote)) / 2
		switch {
		case allAlpha(quote) && quoteLen == 4:
			conf += 0.12
		case allAlpha(quote) && quoteLen == 3:
			conf += 0.10
		case allAlpha(quote):
			conf += 0.05
		}
		if conf > 0.97 {
			conf = 0.97
		}
		if conf > best.Confidence {
			best = domain.ParsedPair{Base: base, Quote: quote, Confidence: conf, Format: FormatHeuristic}
		}
	}
	return best
}

// byPositional weights split points by position for mid-length symbols.
func (r *SymbolResolver) byPositional(sym string) domain.ParsedPair {
	if len(sym) < 6 || len(sym) > 10 {
		return domain.ParsedPair{}
	}

	best := domain.ParsedPair{}
	for split := 2; split <= len(sym)-2; split++ {
		base, quote := sym[:split], sym[split:]
		if !validToken(base) || !validToken(quote) {
			continue
		}
		conf := 0.55 + positionWeight(split, len(sym))
		if conf > best.Confidence {
			best = domain.ParsedPair{Base: base, Quote: quote, Confidence: conf, Format: FormatPositional}
		}
	}
	return best
}

func (r *SymbolResolver) cached(raw string) (resolveEntry, bool) {
	if r.cfg.CacheTTL <= 0 {
		return resolveEntry{}, false
	}
	r.cacheMu.RLock()
	entry, ok := r.cache[raw]
	r.cacheMu.RUnlock()
	if !ok || time.Since(entry.at) > r.cfg.CacheTTL {
		return resolveEntry{}, false
	}
	return entry, true
}

func (r *SymbolResolver) store(raw string, pair domain.ParsedPair, ok bool) {
	if r.cfg.CacheTTL <= 0 {
		return
	}
	r.cacheMu.Lock()
	r.cache[raw] = resolveEntry{pair: pair, ok: ok, at: time.Now()}
	r.cacheMu.Unlock()
}

// normalizeSymbol uppercases and strips separator punctuation.
func normalizeSymbol(raw string) string {
	var sb strings.Builder
	sb.Grow(len(raw))
	for _, c := range strings.ToUpper(raw) {
		switch c {
		case '-', '_', '/', ':', '.', ' ':
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// validToken enforces the candidate currency rule: length 2 to 15,
// alphanumeric, at least one letter, not all digits.
func validToken(tok string) bool {
	if len(tok) < 2 || len(tok) > 15 {
		return false
	}
	hasLetter := false
	allDigits := true
	for _, c := range tok {
		switch {
		case unicode.IsLetter(c):
			hasLetter = true
			allDigits = false
		case unicode.IsDigit(c):
		default:
			return false
		}
	}
	return hasLetter && !allDigits
}

// tokenScore rates a candidate token by length and character composition.
func tokenScore(tok string) float64 {
	score := 0.5

	letters := 0
	for _, c := range tok {
		if unicode.IsLetter(c) {
			letters++
		}
	}
	alphaRatio := float64(letters) / float64(len(tok))
	score += 0.25 * alphaRatio

	if len(tok) >= 3 && len(tok) <= 5 {
		score += 0.10
	}
	if tok[0] == '0' || tok[len(tok)-1] == '0' {
		score -= 0.20
	}
	if score < 0 {
		score = 0
	}
	return score
}

// positionWeight peaks where quote currencies usually sit, three or four
// characters from the end.
func positionWeight(split, length int) float64 {
	quoteLen := length - split
	switch quoteLen {
	case 3, 4:
		return 0.18
	case 5:
		return 0.10
	case 2:
		return 0.05
	default:
		return 0
	}
}

func leadingDigits(s string) bool {
	return len(s) > 0 && unicode.IsDigit(rune(s[0]))
}

func allAlpha(s string) bool {
	for _, c := range s {
		if !unicode.IsLetter(c) {
			return false
		}
	}
	return len(s) > 0
}
