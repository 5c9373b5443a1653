package engine

import (
	"log/slog"

	"github.com/piwi3910/plateplan/internal/model"
)

// Scheduler orders fully blocked probes so that each one goes onto the plate
// before the probes that would obstruct its gripper.
type Scheduler struct {
	Settings model.SchedulerSettings
	Log      *slog.Logger
}

// NewScheduler returns a scheduler with the given settings.
func NewScheduler(settings model.SchedulerSettings) *Scheduler {
	return &Scheduler{Settings: settings, Log: slog.Default()}
}

// Schedule raises the placement index of every resolvable fully blocked
// probe and marks the rest unresolved. It returns the unresolved probes in
// the order they were examined.
//
// For a blocked probe P the search starts from P's direct blockers. If any
// of them is free, P's index grows by the search depth. Otherwise the
// search widens to the blockers of that set. In legacy mode the widened set
// is always empty, so only direct blockers can ever resolve P.
func (s *Scheduler) Schedule(probes []*model.Probe, conflicts []model.Conflict, blocked []model.ProbeKey) []model.ProbeKey {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	maxIter := s.Settings.MaxIterations
	if maxIter <= 0 {
		maxIter = model.DefaultSchedulerSettings().MaxIterations
	}

	byKey := make(map[model.ProbeKey]*model.Probe, len(probes))
	for _, p := range probes {
		byKey[p.Key()] = p
	}
	stuck := make(map[model.ProbeKey]bool, len(blocked))
	for _, k := range blocked {
		stuck[k] = true
	}

	var unresolved []model.ProbeKey
	for _, key := range blocked {
		p, ok := byKey[key]
		if !ok {
			continue
		}

		frontier := model.BlockersOf(key, conflicts)
		visited := map[model.ProbeKey]bool{key: true}
		for _, k := range frontier {
			visited[k] = true
		}

		resolved := false
		for depth := 1; depth <= maxIter; depth++ {
			if hasFree(frontier, stuck) {
				p.PlacementIndex += depth
				resolved = true
				log.Debug("blocked probe scheduled",
					slog.String("probe", key.String()),
					slog.Int("depth", depth),
					slog.Int("placement_index", p.PlacementIndex))
				break
			}
			if s.Settings.LegacyEscalation {
				frontier = nil
				continue
			}
			var next []model.ProbeKey
			for _, k := range frontier {
				for _, b := range model.BlockersOf(k, conflicts) {
					if !visited[b] {
						visited[b] = true
						next = append(next, b)
					}
				}
			}
			frontier = next
			if len(frontier) == 0 {
				break
			}
		}

		if !resolved {
			p.Unresolved = true
			unresolved = append(unresolved, key)
			log.Warn("blocked probe unresolved", slog.String("probe", key.String()))
		}
	}
	return unresolved
}

func hasFree(keys []model.ProbeKey, stuck map[model.ProbeKey]bool) bool {
	for _, k := range keys {
		if !stuck[k] {
			return true
		}
	}
	return false
}

// AssignOrders turns placement indices into robot orders. The highest index
// is placed first (order 1); unresolved probes get order 0.
func AssignOrders(probes []*model.Probe) {
	max := 0
	for _, p := range probes {
		if !p.Unresolved && p.PlacementIndex > max {
			max = p.PlacementIndex
		}
	}
	for _, p := range probes {
		if p.Unresolved {
			p.Order = 0
			continue
		}
		p.Order = 1 + (max - p.PlacementIndex)
	}
}
