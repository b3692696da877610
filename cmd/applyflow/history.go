package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/applyflow/applyflow/internal/audit"
	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/orchestrator"
	"github.com/applyflow/applyflow/internal/store"
)

var (
	historyState       string
	historyDays        int
	historyStats       bool
	historyInteractive bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show application history",
	Long:  "Lists application records, newest first. Use --stats for aggregate outcome statistics or --interactive for the TUI browser.",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&historyState, "state", "", "filter by state (e.g. applied, rejected, tracked)")
	historyCmd.Flags().IntVar(&historyDays, "days", 0, "only records updated in the last N days (0 = all)")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print aggregate statistics instead of records")
	historyCmd.Flags().BoolVar(&historyInteractive, "interactive", false, "browse records in the TUI")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	filter := model.HistoryFilter{}
	if historyDays > 0 {
		filter.Since = time.Now().AddDate(0, 0, -historyDays)
	}
	if historyState != "" {
		state, err := model.ParseState(historyState)
		if err != nil {
			return err
		}
		filter.States = []model.State{state}
	}

	if historyInteractive {
		return runHistoryTUI(st, filter)
	}

	records, err := st.ListRecords(filter)
	if err != nil {
		return fmt.Errorf("listing records: %w", err)
	}

	if historyStats {
		printStats(orchestrator.ComputeStats(records))
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No application records.")
		return nil
	}
	for _, r := range records {
		line := fmt.Sprintf("%s  %-11s %s",
			r.UpdatedAt.Local().Format("2006-01-02 15:04"), r.State, r.PostingID)
		if p, err := st.GetPosting(r.PostingID); err == nil && p != nil {
			line += "  " + p.Title
			if p.Company != "" {
				line += " @ " + p.Company
			}
		}
		if r.Score != nil {
			line += fmt.Sprintf("  [%.2f]", r.Score.Overall)
		}
		if r.Reason != "" {
			line += "  (" + r.Reason + ")"
		}
		fmt.Println(line)
	}
	return nil
}

func printStats(s orchestrator.Stats) {
	fmt.Printf("Total records:  %d\n", s.Total)
	fmt.Printf("Applied:        %d\n", s.Applied)
	fmt.Printf("Failed:         %d\n", s.Failed)
	fmt.Printf("Rejected:       %d\n", s.Rejected)
	fmt.Printf("Success rate:   %.0f%%\n", s.SuccessRate*100)
	if len(s.ByState) > 0 {
		fmt.Println("\nBy state:")
		for _, state := range []model.State{
			model.StateDiscovered, model.StateScored, model.StateEligible,
			model.StateOptimizing, model.StateSubmitting, model.StateApplied,
			model.StateFailed, model.StateRejected, model.StateTracked,
		} {
			if n := s.ByState[state]; n > 0 {
				fmt.Printf("  %-11s %d\n", state, n)
			}
		}
	}
}

func runHistoryTUI(st model.Store, base model.HistoryFilter) error {
	choices := audit.DefaultStateChoices()
	for {
		choice, err := audit.RunStatePicker(choices)
		if err != nil {
			return fmt.Errorf("picker error: %w", err)
		}
		if choice < 0 {
			return nil
		}

		filter := base
		filter.States = choices[choice].States
		records, err := audit.RunLoader("application history", func(context.Context) ([]model.ApplicationRecord, error) {
			return st.ListRecords(filter)
		})
		if err != nil {
			fmt.Printf("Error loading records: %v\n", err)
			continue
		}

		wantQuit, err := audit.RunHistoryTUI(records, st)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// else: loop → back to picker
	}
}
