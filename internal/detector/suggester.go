package detector

import (
	"fmt"
	"math"
	"sort"
	"time"

	"terracurve/internal/models"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// SmoothingSuggester recommends month smoothing where anomalies cluster
type SmoothingSuggester struct {
	minAnomaliesForSuggestion int
}

// NewSmoothingSuggester creates a new smoothing suggester
func NewSmoothingSuggester() *SmoothingSuggester {
	return &SmoothingSuggester{
		minAnomaliesForSuggestion: 3,
	}
}

// SuggestSmoothing groups anomalies by month and suggests smoothing the months
// with enough of them, strongest first.
func (ss *SmoothingSuggester) SuggestSmoothing(anomalies []models.Anomaly) []models.SmoothingSuggestion {
	if len(anomalies) == 0 {
		return nil
	}

	byMonth := make(map[int][]models.Anomaly)
	for _, a := range anomalies {
		byMonth[a.Month] = append(byMonth[a.Month], a)
	}

	var suggestions []models.SmoothingSuggestion
	for month, monthAnomalies := range byMonth {
		if len(monthAnomalies) >= ss.minAnomaliesForSuggestion {
			suggestions = append(suggestions, ss.generateSuggestion(month, monthAnomalies))
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Month < suggestions[j].Month
	})
	return suggestions
}

func (ss *SmoothingSuggester) generateSuggestion(month int, anomalies []models.Anomaly) models.SmoothingSuggestion {
	scores := make([]float64, len(anomalies))
	for i, a := range anomalies {
		scores[i] = a.ZScore
	}

	return models.SmoothingSuggestion{
		Month:        month,
		AnomalyCount: len(anomalies),
		Confidence:   ss.calculateConfidence(scores),
		Description: fmt.Sprintf("%d days in %s stand out from their neighbours; smoothing the month is suggested",
			len(anomalies), monthNames[month]),
		SuggestedAt: time.Now(),
	}
}

// calculateConfidence is high when spikes alternate direction, which is what
// smoothing removes. A one-sided run is more likely an intended step.
func (ss *SmoothingSuggester) calculateConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	up, down := 0, 0
	for _, z := range scores {
		if z > 0 {
			up++
		} else if z < 0 {
			down++
		}
	}
	minority := math.Min(float64(up), float64(down))
	// Perfect alternation is an even split.
	return math.Round(2*minority/float64(len(scores))*100) / 100
}

// calculateMean calculates the mean of values
func calculateMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// calculateStdDev calculates the standard deviation of values
func calculateStdDev(values []float64, mean float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}
