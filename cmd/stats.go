package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/tutorloop/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show generation usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		s, err := store.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer s.Close()

		since := time.Now().AddDate(0, 0, -days)
		st, err := s.LLMStatsSince(context.Background(), since)
		if err != nil {
			return fmt.Errorf("query stats: %w", err)
		}

		fmt.Printf("Generation calls (last %d days)\n", days)
		fmt.Printf("  Requests:      %d\n", st.Requests)
		fmt.Printf("  Failures:      %d\n", st.Failures)
		fmt.Printf("  Input tokens:  %d\n", st.InputTokens)
		fmt.Printf("  Output tokens: %d\n", st.OutputTokens)
		fmt.Printf("  Avg latency:   %.0f ms\n", st.AvgLatencyMs)
		return nil
	},
}

func init() {
	statsCmd.Flags().Int("days", 7, "How many days back to aggregate")
}
