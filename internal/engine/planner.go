package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/piwi3910/plateplan/internal/allocate"
	"github.com/piwi3910/plateplan/internal/model"
)

// Planner runs the whole per-tile pipeline.
type Planner struct {
	Geometry    model.PlateGeometry
	Scheduler   *Scheduler
	Allocator   *allocate.Allocator
	Log         *slog.Logger
	ConflictLog io.Writer // Append-only; one line per unresolved probe. May be nil.
}

// NewPlanner wires a planner from its settings.
func NewPlanner(geom model.PlateGeometry, sched model.SchedulerSettings, alloc model.AllocatorSettings) *Planner {
	return &Planner{
		Geometry:  geom,
		Scheduler: NewScheduler(sched),
		Allocator: allocate.New(alloc),
		Log:       slog.Default(),
	}
}

// PlanTile detects conflicts, orders placement, allocates bundles and
// assembles the robot rows for one tile. The probes are mutated in place.
// The returned record is the galaxy record to pass into the next tile.
func (pl *Planner) PlanTile(tile model.Tile, probes []*model.Probe, record *model.GalaxyRecord) (*model.TilePlan, *model.GalaxyRecord, error) {
	log := pl.Log
	if log == nil {
		log = slog.Default()
	}
	plan := model.NewTilePlan(tile)
	log = log.With(slog.String("run", plan.RunID), slog.String("tile", tile.String()))

	if err := model.ValidatePairs(probes, pl.Geometry); err != nil {
		return nil, nil, fmt.Errorf("tile %s: %w: %v", tile, ErrInvalidLayout, err)
	}

	for _, p := range probes {
		p.Pickups = model.CreatePickupAreas(p, pl.Geometry)
		p.PlacementIndex = 1
		p.Unresolved = false
		p.Order = 0
	}

	conflicts := DetectConflicts(probes, pl.Geometry)
	PruneBlocked(probes, conflicts)
	blocked := FullyBlocked(probes, conflicts)
	log.Info("conflicts detected",
		slog.Int("probes", len(probes)),
		slog.Int("conflicts", len(conflicts)),
		slog.Int("fully_blocked", len(blocked)))

	sched := pl.Scheduler
	if sched == nil {
		sched = NewScheduler(model.DefaultSchedulerSettings())
	}
	if sched.Log == nil {
		sched.Log = log
	}
	unresolved := sched.Schedule(probes, conflicts, blocked)
	AssignOrders(probes)

	alloc := pl.Allocator
	if alloc == nil {
		alloc = allocate.New(model.DefaultAllocatorSettings())
	}
	res, err := alloc.Allocate(tile, probes, record)
	if err != nil {
		return nil, nil, err
	}

	// Written after allocation so a tile that fails leaves no lines behind.
	if pl.ConflictLog != nil {
		for _, k := range unresolved {
			if _, err := fmt.Fprintf(pl.ConflictLog, "%s\t%d\t%s\n", tile, k.Index, k.Kind); err != nil {
				return nil, nil, fmt.Errorf("write conflicts log: %w", err)
			}
		}
	}

	for _, p := range probes {
		plan.Rows = append(plan.Rows, Assemble(p))
	}
	SortRows(plan.Rows)

	plan.Conflicts = conflicts
	plan.Blocked = blocked
	plan.Unresolved = unresolved
	plan.Flags = res.Flags

	log.Info("tile planned",
		slog.Int("rows", len(plan.Rows)),
		slog.Int("unresolved", len(unresolved)),
		slog.Int("max_order", plan.MaxOrder()))
	return plan, res.Record, nil
}

// SortRows orders rows by placement order with unresolved rows (order 0)
// last, then by index with the circular anchor before its partner.
func SortRows(rows []model.PlacementRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if (a.Order == 0) != (b.Order == 0) {
			return b.Order == 0
		}
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if a.Index != b.Index {
			return a.Index < b.Index
		}
		return a.Kind < b.Kind
	})
}
