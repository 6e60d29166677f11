package main

import (
	"context"
	"fmt"
	"log"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"surveillance/internal/schedule"
	"surveillance/internal/solver"
)

func main() {
	const File string = "../test/data/session.json"

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("cannot initialize logger: %v", err)
	}
	defer logger.Sync()

	input, err := schedule.InputFromJson(File)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	cfg := schedule.DefaultConfig()
	engine := schedule.NewEngine(cfg, solver.NewCpSatSolver(), logger)

	result := engine.Run(context.Background(), input)

	switch result.Outcome {
	case schedule.OutcomeDefect:
		log.Fatalf("engine defect: %v", result.Err)
	case schedule.OutcomeInfeasible:
		printDiagnostic(result.Diagnostic)
		return
	}

	printPlan(result.Plan)
	printStats(result.Stats)
}

func printDiagnostic(report *schedule.DiagnosticReport) {
	fmt.Println("Problem is infeasible")
	fmt.Printf("Capacity: %d, required: %d (ratio %.2f)\n", report.Capacity, report.Required, report.Ratio)
	if report.Deficit > 0 {
		fmt.Printf("Missing %d supervisions: raise quotas or enlarge the participant pool\n", report.Deficit)
	}
	for _, shortfall := range report.Shortfalls {
		fmt.Printf("Slot %s (%s %s): need %d, available %d (wish-excluded %d, responsibility-excluded %d)\n",
			shortfall.Slot, shortfall.Date, shortfall.Start,
			shortfall.Required, shortfall.Available, shortfall.WishExcluded, shortfall.RespExcluded)
	}
	if report.EquityInteraction {
		fmt.Println("Capacity and coverage check out: the conflict lives in the per-grade equity constraints")
	}
}

func printPlan(plan []schedule.RoomAssignment) {
	days := lo.Uniq(lo.Map(plan, func(a schedule.RoomAssignment, _ int) int { return a.Day }))
	for _, day := range days {
		fmt.Printf("\n=== Day %d ===\n", day)
		for _, assignment := range plan {
			if assignment.Day != day {
				continue
			}
			marker := ""
			if assignment.IsRoomResponsible {
				marker = " (room responsible)"
			}
			fmt.Printf("%s %s-%s | room %-8s | S%d | %-9s | teacher %d%s\n",
				assignment.Date, assignment.Start, assignment.End,
				assignment.Room, assignment.Session, assignment.Role, assignment.Teacher, marker)
		}
	}
}

func printStats(stats *schedule.Statistics) {
	fmt.Printf("\n%d assignments (%d titulaires, %d reserves)\n",
		stats.TotalAssignments, stats.Titulaires, stats.Reserves)

	fmt.Println("\nEquity by grade:")
	for _, spread := range stats.Spreads {
		fmt.Printf("  %-4s: %d teachers, min=%d max=%d spread=%d mad=%.2f\n",
			spread.Grade, spread.Teachers, spread.Min, spread.Max, spread.Spread, spread.MeanAbsoluteDeviation)
	}

	fmt.Printf("\nWish compliance: %.0f%%\n", stats.WishComplianceRate*100)
	fmt.Printf("Responsible presence: %.0f%%\n", stats.ResponsiblePresenceRate*100)

	fmt.Println("\nRoom occupancy:")
	for occupancy, rooms := range stats.RoomOccupancy {
		fmt.Printf("  %d supervisors: %d rooms\n", occupancy, rooms)
	}
}
