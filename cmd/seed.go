package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/crm-dedupe/internal/seed"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a YAML fixture of organizations and contacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := seed.Load(seedFile)
		if err != nil {
			return err
		}

		s, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		orgs, contacts, err := fixture.Apply(cmd.Context(), s)
		if err != nil {
			return err
		}

		fmt.Printf("seeded %d organization(s), %d contact(s) for tenant %s\n", orgs, contacts, fixture.TenantID)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "seed.yaml", "path to fixture file")
	rootCmd.AddCommand(seedCmd)
}
