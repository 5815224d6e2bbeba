package grounding

import (
	"strings"

	"github.com/vidyalab/vidya/retrieval"
)

// Strategy names the rule by which a citation token matched a retrieved
// chunk. Strategies are tried in a fixed priority order and the first
// match wins, so a resolution is always attributable to exactly one rule.
type Strategy string

const (
	// StrategyExactID matches a token that equals a retrieved chunk id.
	StrategyExactID Strategy = "exact_id"

	// StrategyHashPrefix matches a token that equals a retrieved
	// chunk's content hash or its 8-character prefix.
	StrategyHashPrefix Strategy = "hash_prefix"

	// StrategyIDSuffix matches a token that is a suffix of a retrieved
	// chunk id. Generators often cite only the trailing hash portion.
	StrategyIDSuffix Strategy = "id_suffix"
)

// Resolution records how one token mapped to a retrieved chunk.
type Resolution struct {
	Token    string
	ID       string
	Strategy Strategy
}

// resolve maps one citation token to a retrieved chunk, or reports that
// no strategy matched. It never invents an id: a token that fails all
// strategies stays unresolved.
func resolve(token string, items []retrieval.Item) (Resolution, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Resolution{}, false
	}

	for _, item := range items {
		if token == item.ID {
			return Resolution{Token: token, ID: item.ID, Strategy: StrategyExactID}, true
		}
	}
	for _, item := range items {
		if token == item.Hash || (len(token) == hashPrefixLen && strings.HasPrefix(item.Hash, token)) {
			return Resolution{Token: token, ID: item.ID, Strategy: StrategyHashPrefix}, true
		}
	}
	for _, item := range items {
		if strings.HasSuffix(item.ID, token) {
			return Resolution{Token: token, ID: item.ID, Strategy: StrategyIDSuffix}, true
		}
	}
	return Resolution{}, false
}

// hashPrefixLen is the citation-friendly hash prefix length, matching
// the hash8 portion of a chunk id.
const hashPrefixLen = 8
