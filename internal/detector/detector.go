package detector

import (
	"math"
	"sort"

	"terracurve/internal/models"

	"go.uber.org/zap"
)

// DailySource exposes the per-day averages of a seasonal matrix.
type DailySource interface {
	DailyAverage(day int) (float64, error)
	Days() int
}

// AnomalyDetector flags days whose average departs from the surrounding days.
type AnomalyDetector struct {
	zScoreThreshold float64 // Standard deviations from the neighbourhood mean to flag a day
	window          int     // Neighbours considered on each side
	log             *zap.Logger
}

// NewAnomalyDetector creates a detector comparing each day with the week
// on either side of it.
func NewAnomalyDetector(log *zap.Logger) *AnomalyDetector {
	return &AnomalyDetector{
		zScoreThreshold: 2.0,
		window:          7,
		log:             log,
	}
}

// DetectAnomalies scans every day of src. The neighbourhood wraps around the
// year so Jan 1 is compared with late December.
func (ad *AnomalyDetector) DetectAnomalies(src DailySource) ([]models.Anomaly, error) {
	n := src.Days()
	averages := make([]float64, n)
	for d := 0; d < n; d++ {
		avg, err := src.DailyAverage(d)
		if err != nil {
			return nil, err
		}
		averages[d] = avg
	}

	var anomalies []models.Anomaly
	neighbours := make([]float64, 0, 2*ad.window)
	for d := 0; d < n; d++ {
		neighbours = neighbours[:0]
		for k := 1; k <= ad.window; k++ {
			neighbours = append(neighbours, averages[(d-k+n)%n], averages[(d+k)%n])
		}

		mean := calculateMean(neighbours)
		stdDev := calculateStdDev(neighbours, mean)
		// A flat neighbourhood makes any step look infinite; require a real spread.
		if stdDev < 0.05 {
			continue
		}

		zScore := CalculateZScore(averages[d], mean, stdDev)
		if !ad.IsOutlier(zScore) {
			continue
		}
		anomalies = append(anomalies, models.Anomaly{
			Day:      d,
			Month:    int(models.DayDate(d).Month()) - 1,
			Average:  math.Round(averages[d]*10) / 10,
			ZScore:   math.Round(zScore*100) / 100,
			Severity: calculateSeverityFromZScore(zScore),
		})
	}

	sort.Slice(anomalies, func(i, j int) bool { return anomalies[i].Day < anomalies[j].Day })
	ad.log.Debug("anomaly scan finished", zap.Int("days", n), zap.Int("anomalies", len(anomalies)))
	return anomalies, nil
}

// IsOutlier checks if a Z-score exceeds the detector threshold
func (ad *AnomalyDetector) IsOutlier(zScore float64) bool {
	return math.Abs(zScore) > ad.zScoreThreshold
}

// calculateSeverityFromZScore determines severity based on Z-score
func calculateSeverityFromZScore(zScore float64) string {
	absZScore := math.Abs(zScore)
	if absZScore > 3.5 {
		return "high"
	} else if absZScore > 2.5 {
		return "medium"
	}
	return "low"
}

// CalculateZScore calculates the Z-score for a value given mean and standard deviation
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
