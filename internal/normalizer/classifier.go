package normalizer

import (
	"strings"
)

// Fallback categories.
const (
	CategoryUnknown = "Unknown"
	CategoryOther   = "Other"
)

// CategoryMode selects what happens to a domain that matches no rule.
type CategoryMode string

// Category modes.
const (
	// ModeClassify maps unmatched domains to CategoryOther.
	ModeClassify CategoryMode = "classify"
	// ModeOriginal uses an unmatched primary domain itself as the category.
	ModeOriginal CategoryMode = "original"
	// ModeVerbatim skips the rule table: every primary domain is its own category.
	ModeVerbatim CategoryMode = "verbatim"
)

// DefaultDelimiter separates entries of a multi-valued domain field.
const DefaultDelimiter = ","

// Rule assigns Category to any domain containing one of Keywords (case-insensitive).
type Rule struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

// DefaultRules is the built-in rule table. Order matters: the first matching rule wins,
// so compound domains such as "Vision-Language" are listed before their parts.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "Multimodal", Keywords: []string{"multimodal", "multi-modal", "vision-language", "image-text", "text-to-image", "text-to-video"}},
		{Category: "Code", Keywords: []string{"code", "programming"}},
		{Category: "Language", Keywords: []string{"language", "nlp", "text", "llm", "chat", "translation", "question answering"}},
		{Category: "Vision", Keywords: []string{"vision", "image", "video", "visual", "detection", "segmentation"}},
		{Category: "Speech/Audio", Keywords: []string{"speech", "audio", "voice", "music"}},
		{Category: "RL/Games", Keywords: []string{"game", "reinforcement", "robot", "driving"}},
		{Category: "Science", Keywords: []string{"biology", "protein", "chemistry", "medicine", "medical", "science", "math", "materials", "weather"}},
	}
}

// Classifier maps free-text domains to category groups.
type Classifier struct {
	mode      CategoryMode
	delimiter string
	rules     []Rule
}

// NewClassifier builds a classifier. Keywords are lower-cased once here; empty
// keywords are dropped so they cannot match everything.
func NewClassifier(rules []Rule, mode CategoryMode, delimiter string) *Classifier {
	if mode == "" {
		mode = ModeClassify
	}

	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	compiled := make([]Rule, 0, len(rules))

	for _, r := range rules {
		keywords := make([]string, 0, len(r.Keywords))

		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}

		compiled = append(compiled, Rule{Category: strings.TrimSpace(r.Category), Keywords: keywords})
	}

	return &Classifier{
		mode:      mode,
		delimiter: delimiter,
		rules:     compiled,
	}
}

// PrimaryDomain returns the first entry of a delimited domain list.
func (c *Classifier) PrimaryDomain(domain string) string {
	first, _, _ := strings.Cut(domain, c.delimiter)

	return strings.TrimSpace(first)
}

// Match returns the category of the first rule with a keyword contained in text.
func (c *Classifier) Match(text string) (string, bool) {
	lower := strings.ToLower(text)

	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if strings.Contains(lower, k) {
				return r.Category, true
			}
		}
	}

	return "", false
}

// Classify returns the primary domain and its category.
func (c *Classifier) Classify(domain string) (string, string) {
	primary := c.PrimaryDomain(domain)
	if primary == "" {
		return "", CategoryUnknown
	}

	if c.mode == ModeVerbatim {
		return primary, primary
	}

	if category, ok := c.Match(primary); ok {
		return primary, category
	}

	if c.mode == ModeOriginal {
		return primary, primary
	}

	return primary, CategoryOther
}
