package ranking

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"careercoach-backend/internal/shared/telemetry"
	"careercoach-backend/internal/vecstore"
)

// Weights controls the contribution of each ranking factor. They should sum
// to roughly 1.0; constructors normalize anything outside [0.95, 1.05].
type Weights struct {
	Similarity   float64 `json:"similarity"`
	Recency      float64 `json:"recency"`
	Completeness float64 `json:"completeness"`
	FileQuality  float64 `json:"file_quality"`
}

// DefaultWeights favors vector similarity with a recency tiebreaker.
func DefaultWeights() Weights {
	return Weights{Similarity: 0.6, Recency: 0.2, Completeness: 0.1, FileQuality: 0.1}
}

func (w Weights) sum() float64 {
	return w.Similarity + w.Recency + w.Completeness + w.FileQuality
}

// FactorScores is the per-factor breakdown attached to each ranked result.
type FactorScores struct {
	Similarity   float64 `json:"similarity"`
	Recency      float64 `json:"recency"`
	Completeness float64 `json:"completeness"`
	FileQuality  float64 `json:"file_quality"`
}

// RankedMatch is a search match with its composite ranking score.
type RankedMatch struct {
	vecstore.Match
	FinalScore   float64      `json:"final_score"`
	Factors      FactorScores `json:"factor_scores"`
	BoostApplied float64      `json:"boost_applied,omitempty"`
}

// BoostFactors are optional multipliers applied after standard ranking.
// A zero value disables that boost.
type BoostFactors struct {
	BoostRecent float64 // multiplier for documents younger than 30 days
	BoostCV     float64 // multiplier for cv documents
}

type Service struct {
	weights Weights
	now     func() time.Time
}

// NewService builds a ranker, normalizing weights that do not sum to ~1.0.
func NewService(weights Weights) *Service {
	if total := weights.sum(); total < 0.95 || total > 1.05 {
		telemetry.Warn("ranking.weights_normalized", map[string]any{
			"sum": total,
		})
		weights.Similarity /= total
		weights.Recency /= total
		weights.Completeness /= total
		weights.FileQuality /= total
	}
	return &Service{weights: weights, now: time.Now}
}

func (s *Service) Weights() Weights { return s.weights }

// Rank scores each match on similarity, recency, completeness, and file
// quality, then orders by the weighted total, highest first. Ties keep the
// incoming (similarity) order.
func (s *Service) Rank(matches []vecstore.Match) []RankedMatch {
	ranked := make([]RankedMatch, 0, len(matches))
	now := s.now()
	for _, m := range matches {
		factors := FactorScores{
			Similarity:   m.Similarity,
			Recency:      recencyScore(m.CreatedAt, now),
			Completeness: completenessScore(m),
			FileQuality:  fileQualityScore(m),
		}
		final := factors.Similarity*s.weights.Similarity +
			factors.Recency*s.weights.Recency +
			factors.Completeness*s.weights.Completeness +
			factors.FileQuality*s.weights.FileQuality
		ranked = append(ranked, RankedMatch{
			Match:      m,
			FinalScore: round4(final),
			Factors:    factors,
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked
}

// RankWithBoost applies standard ranking, then multiplies final scores by
// the matching boost factors and re-sorts.
func (s *Service) RankWithBoost(matches []vecstore.Match, boost BoostFactors) []RankedMatch {
	ranked := s.Rank(matches)
	now := s.now()
	for i := range ranked {
		multiplier := 1.0
		if boost.BoostRecent > 0 && !ranked[i].CreatedAt.IsZero() {
			if now.Sub(ranked[i].CreatedAt) < 30*24*time.Hour {
				multiplier *= boost.BoostRecent
			}
		}
		if boost.BoostCV > 0 && ranked[i].DocumentType == vecstore.TypeCV {
			multiplier *= boost.BoostCV
		}
		ranked[i].FinalScore = round4(ranked[i].FinalScore * multiplier)
		ranked[i].BoostApplied = multiplier
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].FinalScore > ranked[j].FinalScore
	})
	return ranked
}

// FilterByThreshold drops ranked matches below the given final score.
func FilterByThreshold(ranked []RankedMatch, minFinalScore float64) []RankedMatch {
	filtered := make([]RankedMatch, 0, len(ranked))
	for _, r := range ranked {
		if r.FinalScore >= minFinalScore {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// Explain renders a human-readable breakdown of one ranked result, mainly
// for debugging relevance complaints.
func (s *Service) Explain(r RankedMatch) string {
	parts := []string{
		factorLine("similarity", r.Factors.Similarity, s.weights.Similarity),
		factorLine("recency", r.Factors.Recency, s.weights.Recency),
		factorLine("completeness", r.Factors.Completeness, s.weights.Completeness),
		factorLine("file_quality", r.Factors.FileQuality, s.weights.FileQuality),
	}
	return fmt.Sprintf("Final score: %.2f = %s", r.FinalScore, strings.Join(parts, " | "))
}

func factorLine(name string, score, weight float64) string {
	return fmt.Sprintf("%s: %.2f (weight: %.0f%%, contribution: %.2f)", name, score, weight*100, score*weight)
}

// recencyScore steps down with document age. An unknown date scores neutral.
func recencyScore(createdAt time.Time, now time.Time) float64 {
	if createdAt.IsZero() {
		return 0.5
	}
	ageDays := int(now.Sub(createdAt).Hours() / 24)
	switch {
	case ageDays < 30:
		return 1.0
	case ageDays < 90:
		return 0.8
	case ageDays < 180:
		return 0.6
	case ageDays < 365:
		return 0.4
	default:
		return 0.2
	}
}

// completenessScore rewards documents with substantial text, a description,
// and a descriptive filename.
func completenessScore(m vecstore.Match) float64 {
	score := 0.0
	if m.ContentText != "" {
		score += 0.3
		if len(m.ContentText) > 100 {
			score += 0.2
		}
		if len(m.ContentText) > 500 {
			score += 0.2
		}
	}
	if m.Description != "" {
		score += 0.15
	}
	filename := strings.ToLower(m.Filename)
	for _, word := range []string{"resume", "cv", "curriculum"} {
		if strings.Contains(filename, word) {
			score += 0.15
			break
		}
	}
	return math.Min(score, 1.0)
}

// fileQualityScore prefers files in a sane size range and professional
// document types.
func fileQualityScore(m vecstore.Match) float64 {
	score := 0.0
	sizeMB := float64(m.FileSize) / (1024 * 1024)
	switch {
	case sizeMB >= 0.1 && sizeMB <= 2.0:
		score += 0.5
	case sizeMB >= 0.05 && sizeMB <= 5.0:
		score += 0.3
	default:
		score += 0.1
	}
	switch m.DocumentType {
	case vecstore.TypeCV:
		score += 0.3
	case vecstore.TypeCoverLetter, vecstore.TypeCertificate:
		score += 0.2
	}
	return math.Min(score, 1.0)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
