package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
)

// FallbackTag is the catalogue entry used when a tag has no responses.
const FallbackTag = "fallback"

// DefaultConfidenceThreshold applies when the model manifest does not carry
// its own threshold.
const DefaultConfidenceThreshold = 0.30

var reFactTag = regexp.MustCompile(`^fact-\d+$`)

// intentsDocument is the wire shape of the response catalogue source.
type intentsDocument struct {
	Intents []struct {
		Tag       string   `json:"tag"`
		Responses []string `json:"responses"`
	} `json:"intents"`
}

// manifestDocument is the wire shape of the model manifest: the merge map
// and threshold exported alongside the trained classifier.
type manifestDocument struct {
	MergeMap            map[string]string `json:"merge_map"`
	ConfidenceThreshold *float64          `json:"confidence_threshold"`
	FactTag             string            `json:"fact_tag"`
}

// Catalogue maps canonical intent tags to candidate replies and owns tag
// canonicalization. Immutable after load; safe to share across sessions.
type Catalogue struct {
	responses map[string][]string
	mergeMap  map[string]string
	factTag   string
	threshold float64
}

// LoadCatalogue parses the intents document and model manifest. Any
// malformed input is a configuration error: callers must abort startup
// rather than serve degraded turns.
func LoadCatalogue(intentsJSON, manifestJSON []byte) (*Catalogue, error) {
	var doc intentsDocument
	if err := json.Unmarshal(intentsJSON, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse intents catalogue: %w", err)
	}
	if len(doc.Intents) == 0 {
		return nil, fmt.Errorf("intents catalogue contains no intents")
	}

	var manifest manifestDocument
	if err := json.Unmarshal(manifestJSON, &manifest); err != nil {
		return nil, fmt.Errorf("failed to parse model manifest: %w", err)
	}

	c := &Catalogue{
		responses: make(map[string][]string, len(doc.Intents)),
		mergeMap:  manifest.MergeMap,
		factTag:   manifest.FactTag,
		threshold: DefaultConfidenceThreshold,
	}
	for _, intent := range doc.Intents {
		if intent.Tag == "" {
			return nil, fmt.Errorf("intents catalogue contains an entry without a tag")
		}
		c.responses[intent.Tag] = intent.Responses
	}
	if c.mergeMap == nil {
		c.mergeMap = map[string]string{}
	}
	if c.factTag == "" {
		c.factTag = "fact"
	}
	if manifest.ConfidenceThreshold != nil {
		c.threshold = *manifest.ConfidenceThreshold
	}

	if len(c.responses[FallbackTag]) == 0 {
		slog.Warn("Catalogue.LoadCatalogue: no fallback entries in catalogue, hardcoded default will be used")
	}
	slog.Debug("Catalogue.LoadCatalogue: catalogue loaded",
		"tags", len(c.responses), "merge_entries", len(c.mergeMap), "threshold", c.threshold)
	return c, nil
}

// ConfidenceThreshold returns the manifest's confidence cutoff.
func (c *Catalogue) ConfidenceThreshold() float64 {
	return c.threshold
}

// CanonicalTag collapses a raw classifier tag to its canonical catalogue
// tag: numeric-suffixed fact tags fold into the single fact tag, and the
// merge map resolves the rest.
func (c *Catalogue) CanonicalTag(tag string) string {
	if reFactTag.MatchString(tag) {
		return c.factTag
	}
	if canonical, ok := c.mergeMap[tag]; ok {
		return canonical
	}
	return tag
}

// HasResponses reports whether the tag has at least one candidate reply.
func (c *Catalogue) HasResponses(tag string) bool {
	return len(c.responses[tag]) > 0
}

// Pick selects one reply for the tag using the provided random source,
// falling back to the fallback entry and finally to the supplied default.
func (c *Catalogue) Pick(tag, defaultReply string, intn func(int) int) string {
	if candidates := c.responses[tag]; len(candidates) > 0 {
		return candidates[intn(len(candidates))]
	}
	if candidates := c.responses[FallbackTag]; len(candidates) > 0 {
		return candidates[intn(len(candidates))]
	}
	return defaultReply
}
