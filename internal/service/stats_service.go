package service

import (
	"context"

	"github.com/andy/fuellog/internal/domain"
	"github.com/shopspring/decimal"
)

// EntryConsumption pairs an entry with the fuel economy measured at it.
// Consumption is nil for the oldest entry and wherever it is undefined.
type EntryConsumption struct {
	Entry       *domain.FuelEntry
	Consumption *float64 // km/l
}

// Summary provides fuel economy and spending analytics
type Summary struct {
	EntryCount         int
	TotalLiters        float64
	TotalSpent         float64
	DistanceKm         float64  // highest minus lowest odometer reading
	LastConsumption    *float64 // between the two most recent entries
	AverageConsumption *float64 // over every defined consecutive pair
}

// StatsService provides aggregations over the recorded entries
type StatsService interface {
	Summary(ctx context.Context) (*Summary, error)
	RecentConsumption(ctx context.Context, limit int) ([]EntryConsumption, error)
}

type statsService struct {
	fuel FuelService
}

// NewStatsService creates a new stats service
func NewStatsService(fuel FuelService) StatsService {
	return &statsService{fuel: fuel}
}

func (s *statsService) Summary(ctx context.Context) (*Summary, error) {
	entries, err := s.fuel.GetAllEntries(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(entries), nil
}

func (s *statsService) RecentConsumption(ctx context.Context, limit int) ([]EntryConsumption, error) {
	// one extra entry so the oldest shown still has a predecessor
	entries, err := s.fuel.GetRecentEntries(ctx, limit+1)
	if err != nil {
		return nil, err
	}

	series := ConsumptionSeries(entries)
	if len(series) > limit {
		series = series[:limit]
	}
	return series, nil
}

// ConsumptionSeries computes the economy of each entry against the next older
// one. entries must be ordered newest first, as the store returns them.
func ConsumptionSeries(entries []*domain.FuelEntry) []EntryConsumption {
	series := make([]EntryConsumption, len(entries))
	for i, entry := range entries {
		series[i].Entry = entry
		if i+1 >= len(entries) {
			continue
		}
		if v, ok := CalculateConsumption(entry, entries[i+1]); ok {
			series[i].Consumption = &v
		}
	}
	return series
}

// Summarize aggregates entries ordered newest first
func Summarize(entries []*domain.FuelEntry) *Summary {
	summary := &Summary{EntryCount: len(entries)}
	if len(entries) == 0 {
		return summary
	}

	liters := decimal.Zero
	spent := decimal.Zero
	minOdo, maxOdo := entries[0].OdometerKm, entries[0].OdometerKm

	for _, entry := range entries {
		liters = liters.Add(decimal.NewFromFloat(entry.Liters))
		spent = spent.Add(decimal.NewFromFloat(entry.TotalPrice))
		if entry.OdometerKm < minOdo {
			minOdo = entry.OdometerKm
		}
		if entry.OdometerKm > maxOdo {
			maxOdo = entry.OdometerKm
		}
	}

	summary.TotalLiters = liters.InexactFloat64()
	summary.TotalSpent = spent.Round(2).InexactFloat64()
	summary.DistanceKm = maxOdo - minOdo

	var total float64
	var count int
	for i, point := range ConsumptionSeries(entries) {
		if point.Consumption == nil {
			continue
		}
		if i == 0 {
			last := *point.Consumption
			summary.LastConsumption = &last
		}
		total += *point.Consumption
		count++
	}

	if count > 0 {
		avg := total / float64(count)
		summary.AverageConsumption = &avg
	}

	return summary
}
