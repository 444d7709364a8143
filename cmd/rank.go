package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldcrew/dispatch/core/assign"
	"github.com/fieldcrew/dispatch/core/model"
	"github.com/fieldcrew/dispatch/core/store"
	"github.com/fieldcrew/dispatch/infra/logger"
)

var rankCmd = &cobra.Command{
	Use:   "rank <fixture.json>",
	Short: "Score the teams of a fixture against its work order, without assigning",
	Args:  cobra.ExactArgs(1),
	RunE:  rank,
}

func init() {
	rootCmd.AddCommand(rankCmd)
}

// rankFixture is the input shape of the rank command: one order and the
// candidate teams, with optional scoring weights.
type rankFixture struct {
	Order  model.WorkOrder `json:"order"`
	Teams  []model.Team    `json:"teams"`
	Config assign.Config   `json:"config"`
}

func rank(cmd *cobra.Command, args []string) error {
	b, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx rankFixture
	if err := json.Unmarshal(b, &fx); err != nil {
		return fmt.Errorf("decode fixture: %w", err)
	}
	if fx.Order.ID == "" {
		fx.Order.ID = "fixture-order"
	}
	if fx.Order.Code == "" {
		fx.Order.Code = "ODL-FIXTURE"
	}
	if fx.Order.Status == "" {
		fx.Order.Status = model.StatusReceived
	}

	st := store.NewMemoryStore()
	if err := st.CreateWorkOrder(fx.Order); err != nil {
		return fmt.Errorf("load order: %w", err)
	}
	for i, t := range fx.Teams {
		if t.ID == "" {
			t.ID = fmt.Sprintf("fixture-team-%d", i)
		}
		if t.Status == "" {
			t.Status = model.TeamAvailable
		}
		t.IsActive = true
		if err := st.CreateTeam(t); err != nil {
			return fmt.Errorf("load team %s: %w", t.Code, err)
		}
	}

	engine := assign.NewEngine(fx.Config, st, nil, nil, nil, logger.NopLogger{})
	defer engine.Close()
	candidates, err := engine.RankCandidates(context.Background(), fx.Order.ID)
	if err != nil {
		return err
	}

	fmt.Printf("%-10s %8s %10s %10s %10s %10s %8s\n",
		"TEAM", "SCORE", "DISTANCE", "COMPET", "MATERIAL", "WORKLOAD", "ETA")
	for _, c := range candidates {
		fmt.Printf("%-10s %8.2f %10.2f %10.2f %10.2f %10.2f %7.0fm\n",
			c.Team.Code, c.Score,
			c.Breakdown.Distance, c.Breakdown.Competence,
			c.Breakdown.Materials, c.Breakdown.Workload,
			c.ETAMinutes)
	}
	return nil
}
