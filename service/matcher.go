package service

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/priceloka/backend/config"
	"github.com/priceloka/backend/model"
)

// MerchantMatcher maps noisy OCR header text onto a fixed registry of
// known merchant names via approximate string matching.
type MerchantMatcher struct {
	registry  []string
	threshold float64
}

func NewMerchantMatcher(cfg *config.MatcherConfig) *MerchantMatcher {
	registry := make([]string, 0, len(cfg.Merchants))
	for _, name := range cfg.Merchants {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name != "" {
			registry = append(registry, name)
		}
	}
	return &MerchantMatcher{
		registry:  registry,
		threshold: cfg.Threshold,
	}
}

// Match scans lines top-to-bottom and returns the registry entry best
// matching the first line whose score clears the cutoff. The scan is
// deliberately greedy and order-sensitive: an earlier line wins over a
// later line with a higher score.
func (m *MerchantMatcher) Match(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.ToUpper(strings.TrimSpace(line))
		if line == "" {
			continue
		}

		best := 0.0
		bestName := ""
		for _, entry := range m.registry {
			if score := similarity(line, entry); score > best {
				best = score
				bestName = entry
			}
		}

		if best >= m.threshold {
			return bestName
		}
	}

	return model.MerchantUnknown
}

// similarity is edit distance normalized onto a 0-1 scale: 1 is an exact
// match, 0 shares nothing.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}

	distance := levenshtein.ComputeDistance(a, b)
	return 1 - float64(distance)/float64(longest)
}
