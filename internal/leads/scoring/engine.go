// Package scoring computes the intake priority score for a lead. The score
// only orders distribution; a higher score is served first. The computation
// is a pure function of the declared signals so identical inputs always
// produce the identical score.
package scoring

import (
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// scoreVersion tracks the scoring model for debugging and analysis.
	// Bump this when changing scoring logic significantly.
	scoreVersion = "2026-v1"

	// Base score - leads start at 50 and factors add/subtract from this.
	baseScore = 50.0

	// Raw contribution of each factor before weighting. Sized so that the
	// weighted sum stays inside 0-100 with default weights.
	phonePoints            = 15.0
	nameCompletePoints     = 10.0
	emailCorporatePoints   = 10.0
	campaignActivePoints   = 10.0
	campaignInactivePoints = -20.0
)

// freemailDomains are consumer mail providers; an address outside this set is
// treated as a corporate address, a mild quality signal.
var freemailDomains = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"hotmail.com": {},
	"outlook.com": {},
	"icloud.com":  {},
	"aol.com":     {},
}

// Signals are the declarative inputs to the scoring function.
type Signals struct {
	Name            string
	Email           string
	Phone           string // normalized digits, empty when absent
	CampaignActive  bool
	CampaignAgeDays int // days since the campaign started
}

// Weights are multipliers applied to the raw factor contributions.
// Operators can tune them per deployment via a YAML file.
type Weights struct {
	Phone           float64 `yaml:"phone"`
	NameComplete    float64 `yaml:"nameComplete"`
	EmailQuality    float64 `yaml:"emailQuality"`
	CampaignStatus  float64 `yaml:"campaignStatus"`
	CampaignRecency float64 `yaml:"campaignRecency"`
}

// DefaultWeights returns the neutral weighting.
func DefaultWeights() Weights {
	return Weights{
		Phone:           1.0,
		NameComplete:    1.0,
		EmailQuality:    1.0,
		CampaignStatus:  1.0,
		CampaignRecency: 1.0,
	}
}

// LoadWeights reads weights from a YAML file. An empty path yields the
// defaults; fields omitted in the file keep their default value.
func LoadWeights(path string) (Weights, error) {
	weights := DefaultWeights()
	if strings.TrimSpace(path) == "" {
		return weights, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Weights{}, err
	}
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return Weights{}, err
	}
	return weights, nil
}

// Engine scores leads. It is stateless apart from its weights and safe for
// concurrent use.
type Engine struct {
	weights Weights
}

func New(weights Weights) *Engine {
	return &Engine{weights: weights}
}

// Version returns the scoring model version.
func (e *Engine) Version() string { return scoreVersion }

// Score computes the 0-100 priority score for the given signals.
// Zero is a valid score and means lowest priority.
func (e *Engine) Score(sig Signals) int {
	score := baseScore

	if sig.Phone != "" {
		score += phonePoints * e.weights.Phone
	}

	if nameComplete(sig.Name) {
		score += nameCompletePoints * e.weights.NameComplete
	}

	if domain := emailDomain(sig.Email); domain != "" {
		if _, free := freemailDomains[domain]; !free {
			score += emailCorporatePoints * e.weights.EmailQuality
		}
	}

	if sig.CampaignActive {
		score += campaignActivePoints * e.weights.CampaignStatus
	} else {
		score += campaignInactivePoints * e.weights.CampaignStatus
	}

	score += recencyPoints(sig.CampaignAgeDays) * e.weights.CampaignRecency

	return clamp(int(math.Round(score)))
}

// recencyPoints rewards leads from campaigns that launched recently; a fresh
// campaign means fresh intent.
func recencyPoints(ageDays int) float64 {
	switch {
	case ageDays < 0:
		return 0
	case ageDays <= 7:
		return 10
	case ageDays <= 30:
		return 6
	case ageDays <= 90:
		return 3
	default:
		return 0
	}
}

// nameComplete reports whether the name carries at least a first and last part.
func nameComplete(name string) bool {
	return len(strings.Fields(name)) >= 2
}

func emailDomain(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
