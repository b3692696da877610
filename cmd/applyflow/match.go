package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/applyflow/applyflow/internal/model"
	"github.com/applyflow/applyflow/internal/orchestrator"
	"github.com/applyflow/applyflow/internal/profile"
	"github.com/applyflow/applyflow/internal/scorer"
)

var matchCmd = &cobra.Command{
	Use:   "match <posting.json>",
	Short: "Score one posting against your resume",
	Long:  "Reads a single posting from a JSON file, scores it against the configured resume, and prints the full category breakdown. Nothing is persisted.",
	Args:  cobra.ExactArgs(1),
	RunE:  runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)
}

// matchPosting is the JSON shape the match command accepts: a single posting
// object, or an array of which the first element is used.
type matchPosting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Description string `json:"description"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading posting: %w", err)
	}
	var p matchPosting
	if err := json.Unmarshal(data, &p); err != nil {
		var list []matchPosting
		if err2 := json.Unmarshal(data, &list); err2 != nil || len(list) == 0 {
			return fmt.Errorf("parsing posting: %w", err)
		}
		p = list[0]
	}
	if strings.TrimSpace(p.Description) == "" {
		return fmt.Errorf("posting has no description")
	}

	resumeText, err := os.ReadFile(cfg.Resume.File)
	if err != nil {
		return fmt.Errorf("reading resume: %w", err)
	}

	builder := profile.NewBuilder()
	bundle := orchestrator.NewResumeBundle(builder, string(resumeText), "")
	postingVec := builder.Build(p.Description, model.KindPosting)

	scr := scorer.New(cfg.Matching.ExperienceGapYears)
	score := scr.Score(bundle.Vector, postingVec, cfg.Matching.MustHaves)

	title := p.Title
	if p.Company != "" {
		title += " @ " + p.Company
	}
	fmt.Printf("%s\n\n", title)
	fmt.Printf("Overall:      %.2f  (%s)\n\n", score.Overall, score.Tier)
	printCategory("Technical", score.Technical)
	printCategory("Experience", score.Experience)
	printCategory("Keywords", score.Keywords)
	printCategory("Must-have", score.MustHave)
	printCategory("Soft skills", score.SoftSkills)

	if score.Overall >= cfg.Matching.MinimumMatchScore {
		fmt.Printf("\nAbove the %.2f threshold — would proceed to application.\n", cfg.Matching.MinimumMatchScore)
	} else {
		fmt.Printf("\nBelow the %.2f threshold — would be rejected.\n", cfg.Matching.MinimumMatchScore)
	}
	return nil
}

func printCategory(name string, c model.CategoryScore) {
	fmt.Printf("%-13s %.2f\n", name+":", c.Score)
	if len(c.Matched) > 0 {
		fmt.Printf("    matched: %s\n", strings.Join(c.Matched, ", "))
	}
	if len(c.Missing) > 0 {
		fmt.Printf("    missing: %s\n", strings.Join(c.Missing, ", "))
	}
}
