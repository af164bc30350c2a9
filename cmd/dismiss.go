package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	dismissTenant     string
	dismissSuggestion string
)

var dismissCmd = &cobra.Command{
	Use:   "dismiss",
	Short: "Dismiss a pending suggestion as not-a-duplicate",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := initStore(cmd.Context())
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.DismissSuggestion(cmd.Context(), dismissTenant, dismissSuggestion); err != nil {
			return err
		}

		fmt.Println("dismissed")
		return nil
	},
}

func init() {
	dismissCmd.Flags().StringVar(&dismissTenant, "tenant", "", "tenant id (required)")
	dismissCmd.Flags().StringVar(&dismissSuggestion, "suggestion", "", "suggestion id (required)")
	dismissCmd.MarkFlagRequired("tenant")
	dismissCmd.MarkFlagRequired("suggestion")
	rootCmd.AddCommand(dismissCmd)
}
