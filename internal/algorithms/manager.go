package algorithms

import (
	"fmt"
	"slices"
	"strings"

	"haze-obliterator/internal/algorithms/atmospheric"
)

// Manager holds the registered atmospheric-light estimators by name.
type Manager struct {
	estimators map[string]LightEstimator
}

// NewManager registers every estimator with the given floor. fraction only
// affects the top-fraction estimator.
func NewManager(floor, fraction float64, workers int) *Manager {
	manager := &Manager{
		estimators: make(map[string]LightEstimator),
	}

	manager.register(atmospheric.NewArgmaxEstimator(floor, workers))
	manager.register(atmospheric.NewTopFractionEstimator(floor, fraction))

	return manager
}

func (m *Manager) register(e LightEstimator) {
	m.estimators[e.GetName()] = e
}

func (m *Manager) GetEstimator(name string) (LightEstimator, error) {
	if e, exists := m.estimators[name]; exists {
		return e, nil
	}
	return nil, fmt.Errorf("unknown light estimator %q (available: %s)", name, strings.Join(m.GetAvailableEstimators(), ", "))
}

// GetAvailableEstimators returns the registered names in sorted order.
func (m *Manager) GetAvailableEstimators() []string {
	names := make([]string, 0, len(m.estimators))
	for name := range m.estimators {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
