// Package redaction scrubs secrets from build tool output before it is
// displayed, stored in run history, or attached to a failure.
package redaction

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
)

const placeholder = "[REDACTED]"

// secretGroup names the capture group that holds the secret when a pattern
// also matches surrounding context, such as a flag name.
const secretGroup = "secret"

// Redactor replaces secrets in text.
// All fields are read-only after construction, making it safe for concurrent use.
type Redactor struct {
	patterns []*regexp.Regexp
	hashMode bool
	salt     string

	// nil when disabled or when the default config could not be loaded
	gitleaksDetector *detect.Detector
}

// Config holds the configuration for the Redactor.
type Config struct {
	// Custom patterns to redact. A (?P<secret>...) group limits the
	// replacement to that group.
	Patterns []string
	// If true, replace with a keyed hash instead of [REDACTED]
	HashMode bool
	// Salt keys the hash. If empty, hashes are deterministic but unkeyed.
	Salt string
	// If true, only the built-in and custom patterns are applied
	DisableGitleaks bool
}

// New creates a new Redactor with the given configuration.
func New(cfg Config) (*Redactor, error) {
	r := &Redactor{
		hashMode: cfg.HashMode,
		salt:     cfg.Salt,
		patterns: make([]*regexp.Regexp, 0, len(cfg.Patterns)+len(defaultPatterns)),
	}

	if !cfg.DisableGitleaks {
		// Without the detector the regex patterns still apply
		if detector, err := newGitleaksDetector(); err == nil {
			r.gitleaksDetector = detector
		}
	}

	for _, p := range defaultPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile default pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	for _, p := range cfg.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to compile custom pattern %s: %w", p, err)
		}
		r.patterns = append(r.patterns, re)
	}

	return r, nil
}

// newGitleaksDetector creates a detector with the gitleaks default rule set.
func newGitleaksDetector() (*detect.Detector, error) {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(strings.NewReader(config.DefaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read gitleaks config: %w", err)
	}

	var vc config.ViperConfig
	if err := v.Unmarshal(&vc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gitleaks config: %w", err)
	}

	cfg, err := vc.Translate()
	if err != nil {
		return nil, fmt.Errorf("failed to translate gitleaks config: %w", err)
	}

	return detect.NewDetector(cfg), nil
}

// ScrubString replaces secrets in input.
// The gitleaks rules run first, then the regex patterns.
func (r *Redactor) ScrubString(input string) string {
	if r == nil || input == "" {
		return input
	}

	result := input

	if r.gitleaksDetector != nil {
		findings := r.gitleaksDetector.Detect(detect.Fragment{Raw: result})
		for _, finding := range findings {
			if finding.Secret == "" {
				continue
			}
			result = strings.ReplaceAll(result, finding.Secret, r.replacement(finding.Secret))
		}
	}

	for _, re := range r.patterns {
		result = r.applyPattern(re, result)
	}

	return result
}

func (r *Redactor) applyPattern(re *regexp.Regexp, s string) string {
	group := re.SubexpIndex(secretGroup)
	if group < 0 {
		return re.ReplaceAllStringFunc(s, r.replacement)
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringSubmatchIndex(s, -1) {
		start, end := loc[2*group], loc[2*group+1]
		if start < 0 {
			continue
		}
		b.WriteString(s[last:start])
		b.WriteString(r.replacement(s[start:end]))
		last = end
	}
	b.WriteString(s[last:])
	return b.String()
}

func (r *Redactor) replacement(secret string) string {
	if r.hashMode {
		return r.hash(secret)
	}
	return placeholder
}

// hash returns a truncated HMAC-SHA256 of the secret so repeated values can
// be correlated across runs without revealing them.
// Format: [hmac:0123456789abcdef]
func (r *Redactor) hash(secret string) string {
	mac := hmac.New(sha256.New, []byte(r.salt))
	mac.Write([]byte(secret))
	return fmt.Sprintf("[hmac:%s]", hex.EncodeToString(mac.Sum(nil))[:16])
}

// defaultPatterns cover secrets build tools are known to echo.
var defaultPatterns = []string{
	// AWS Access Key ID
	`\b((?:AKIA|ABIA|ACCA|ASIA)[0-9A-Z]{16})\b`,
	// Generic Private Key Header
	`-----BEGIN [A-Z ]+ PRIVATE KEY-----`,
	// Github Token
	`gh[pousr]_[A-Za-z0-9_]{36,255}`,
	// Slack Token
	`xox[baprs]-([0-9a-zA-Z]{10,48})?`,
	// Android keystore and key alias passwords passed as flags or properties
	`(?i)(?:keystore|keyalias|key)[_-]?pass(?:word)?["']?\s*[=:]?\s*["']?(?P<secret>[^\s"',;]+)`,
	// Editor license serials
	`(?i)-serial\s+(?P<secret>\S+)`,
}
