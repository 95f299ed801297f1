package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/krishisakhi/sakhi-agent/internal/domain"
)

// PlotStore is an in-memory domain.PlotStore.
type PlotStore struct {
	mu    sync.RWMutex
	plots map[domain.UserID]map[domain.PlotID]*domain.Plot
}

func NewPlotStore() *PlotStore {
	return &PlotStore{
		plots: make(map[domain.UserID]map[domain.PlotID]*domain.Plot),
	}
}

func (s *PlotStore) GetPlot(ctx context.Context, userID domain.UserID, plotID domain.PlotID) (*domain.Plot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	plot, ok := s.plots[userID][plotID]
	if !ok {
		return nil, domain.ErrPlotNotFound
	}
	cp := *plot
	return &cp, nil
}

func (s *PlotStore) ListPlots(ctx context.Context, userID domain.UserID) ([]*domain.Plot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Plot
	for _, plot := range s.plots[userID] {
		cp := *plot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *PlotStore) SavePlot(ctx context.Context, plot *domain.Plot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if plot.ID == "" {
		plot.ID = domain.PlotID(uuid.NewString())
	}
	if s.plots[plot.UserID] == nil {
		s.plots[plot.UserID] = make(map[domain.PlotID]*domain.Plot)
	}
	cp := *plot
	s.plots[plot.UserID][plot.ID] = &cp
	return nil
}

func (s *PlotStore) SetCrop(ctx context.Context, userID domain.UserID, plotID domain.PlotID, crop string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	plot, ok := s.plots[userID][plotID]
	if !ok {
		return domain.ErrPlotNotFound
	}
	plot.Crop = crop
	return nil
}
