package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm-dedupe/internal/dedupe"
	"github.com/sells-group/crm-dedupe/internal/model"
)

var (
	detectTenant string
	detectType   string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Scan a tenant's records for duplicate candidates",
	Long:  "Scores every unordered pair of live records of the given type and persists pairs at or above the similarity threshold as pending suggestions. Safe to re-run; already-suggested pairs are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		entityType := model.EntityType(detectType)
		if !entityType.Valid() {
			return eris.Errorf("--type must be %q or %q", model.EntityOrganization, model.EntityContact)
		}

		s, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		gen := dedupe.NewGenerator(s, cfg.Dedupe.SimilarityThreshold, cfg.Dedupe.ScoreWorkers)
		count, err := gen.Generate(cmd.Context(), detectTenant, entityType)
		if err != nil {
			return err
		}

		fmt.Printf("created %d new suggestion(s)\n", count)
		return nil
	},
}

func init() {
	detectCmd.Flags().StringVar(&detectTenant, "tenant", "", "tenant id (required)")
	detectCmd.Flags().StringVar(&detectType, "type", string(model.EntityOrganization), "entity type: organization or contact")
	detectCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(detectCmd)
}
