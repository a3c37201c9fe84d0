package report

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"i3d-treeplant/internal/extract"
	"i3d-treeplant/internal/treetypes"
)

// TypeSummary aggregates the trees of one type.
type TypeSummary struct {
	Type     string
	Count    int
	MaxStage int
	Stages   map[int]int // growth stage -> count
	Final    int
	Growing  int
}

// Summary aggregates a conversion run.
type Summary struct {
	Total   int
	Types   []TypeSummary // sorted by type name
	Final   int
	Growing int

	// X/Z extent of all tree positions; only meaningful when Total > 0.
	MinX, MaxX float64
	MinZ, MaxZ float64
}

// Summarize groups instances by type and counts growth states.
func Summarize(instances []extract.TreeInstance, cat *treetypes.Catalog) Summary {
	s := Summary{
		Total: len(instances),
		MinX:  math.Inf(1),
		MaxX:  math.Inf(-1),
		MinZ:  math.Inf(1),
		MaxZ:  math.Inf(-1),
	}
	byType := make(map[string]*TypeSummary)
	for _, t := range instances {
		ts, ok := byType[t.Type]
		if !ok {
			ts = &TypeSummary{Type: t.Type, MaxStage: cat.MaxStage(t.Type), Stages: make(map[int]int)}
			byType[t.Type] = ts
		}
		ts.Count++
		ts.Stages[t.Stage]++
		if t.Stage >= ts.MaxStage {
			ts.Final++
		} else {
			ts.Growing++
		}

		s.MinX = math.Min(s.MinX, t.Position[0])
		s.MaxX = math.Max(s.MaxX, t.Position[0])
		s.MinZ = math.Min(s.MinZ, t.Position[2])
		s.MaxZ = math.Max(s.MaxZ, t.Position[2])
	}

	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		ts := byType[name]
		s.Final += ts.Final
		s.Growing += ts.Growing
		s.Types = append(s.Types, *ts)
	}
	return s
}

// SortedStages returns the distinct growth stages in ascending order.
func (ts TypeSummary) SortedStages() []int {
	stages := make([]int, 0, len(ts.Stages))
	for st := range ts.Stages {
		stages = append(stages, st)
	}
	sort.Ints(stages)
	return stages
}

// Print writes the human-readable run summary.
func Print(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\nFound %d trees:\n", s.Total)
	if s.Total == 0 {
		return
	}

	for _, ts := range s.Types {
		fmt.Fprintf(w, "  %s: %d (max stage: %d)\n", ts.Type, ts.Count, ts.MaxStage)
		if len(ts.Stages) > 1 {
			parts := make([]string, 0, len(ts.Stages))
			for _, st := range ts.SortedStages() {
				parts = append(parts, fmt.Sprintf("stage %d: %d", st, ts.Stages[st]))
			}
			fmt.Fprintf(w, "    (%s)\n", strings.Join(parts, ", "))
		}
		fmt.Fprintf(w, "    -> %d final stage, %d growing\n", ts.Final, ts.Growing)
	}

	fmt.Fprintf(w, "\nGrowth status summary:\n")
	fmt.Fprintf(w, "  Final stage (isGrowing=false): %d (%.1f%%)\n", s.Final, percent(s.Final, s.Total))
	fmt.Fprintf(w, "  Growing (isGrowing=true): %d (%.1f%%)\n", s.Growing, percent(s.Growing, s.Total))
	fmt.Fprintf(w, "\nBounding box: X [%.1f, %.1f], Z [%.1f, %.1f]\n", s.MinX, s.MaxX, s.MinZ, s.MaxZ)
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(n) / float64(total)
}
