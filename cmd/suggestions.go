package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-dedupe/internal/model"
	"github.com/sells-group/crm-dedupe/internal/store"
)

var (
	suggestionsTenant string
	suggestionsType   string
	suggestionsStatus string
	suggestionsLimit  int
	suggestionsAll    bool
)

var suggestionsCmd = &cobra.Command{
	Use:   "suggestions",
	Short: "List duplicate suggestions for a tenant",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		out, err := s.ListSuggestions(cmd.Context(), store.SuggestionFilter{
			TenantID:   suggestionsTenant,
			EntityType: model.EntityType(suggestionsType),
			Status:     model.SuggestionStatus(suggestionsStatus),
			LiveOnly:   !suggestionsAll,
			Limit:      suggestionsLimit,
		})
		if err != nil {
			return err
		}

		if len(out) == 0 {
			fmt.Println("no suggestions")
			return nil
		}
		for _, sg := range out {
			fmt.Printf("%s  %-12s  %.2f  %s  %s <-> %s\n",
				sg.ID, sg.EntityType, sg.SimilarityScore, sg.Status, sg.Record1ID, sg.Record2ID)
		}
		return nil
	},
}

func init() {
	suggestionsCmd.Flags().StringVar(&suggestionsTenant, "tenant", "", "tenant id (required)")
	suggestionsCmd.Flags().StringVar(&suggestionsType, "type", "", "filter by entity type")
	suggestionsCmd.Flags().StringVar(&suggestionsStatus, "status", string(model.StatusPending), "filter by status")
	suggestionsCmd.Flags().IntVar(&suggestionsLimit, "limit", 50, "maximum rows")
	suggestionsCmd.Flags().BoolVar(&suggestionsAll, "all", false, "include suggestions whose records no longer exist")
	suggestionsCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(suggestionsCmd)
}
