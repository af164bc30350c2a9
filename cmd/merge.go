package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-dedupe/internal/dedupe"
)

var (
	mergeTenant     string
	mergeSuggestion string
	mergePrimary    string
	mergeYes        bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge a suggestion's records, keeping the chosen primary",
	Long:  "Re-points every dependent row from the losing record to the primary and deletes the loser, all in one transaction. Irreversible.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !mergeYes {
			fmt.Printf("merge suggestion %s keeping %s? This deletes the other record and cannot be undone [y/N]: ", mergeSuggestion, mergePrimary)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if answer := strings.ToLower(strings.TrimSpace(line)); answer != "y" && answer != "yes" {
				return eris.New("merge aborted")
			}
		}

		s, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		merger := dedupe.NewMerger(s)
		if err := merger.Merge(cmd.Context(), mergeTenant, mergeSuggestion, mergePrimary); err != nil {
			return err
		}

		fmt.Println("merged")
		return nil
	},
}

func init() {
	mergeCmd.Flags().StringVar(&mergeTenant, "tenant", "", "tenant id (required)")
	mergeCmd.Flags().StringVar(&mergeSuggestion, "suggestion", "", "suggestion id (required)")
	mergeCmd.Flags().StringVar(&mergePrimary, "primary", "", "surviving record id (required)")
	mergeCmd.Flags().BoolVar(&mergeYes, "yes", false, "skip confirmation prompt")
	mergeCmd.MarkFlagRequired("tenant")
	mergeCmd.MarkFlagRequired("suggestion")
	mergeCmd.MarkFlagRequired("primary")
	rootCmd.AddCommand(mergeCmd)
}
