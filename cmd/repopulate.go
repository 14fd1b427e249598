package main

import (
	"fmt"
	"github.com/spf13/cobra"
)

func newRepopulateCmd() *cobra.Command {

	var profileID string

	cmd := &cobra.Command{
		Use:   "repopulate",
		Short: "Write the cached extraction to the profile again without calling the AI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err = a.extractionService().RepopulateFromCache(cmd.Context(), profileID); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "profile %s repopulated\n", profileID)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "candidate profile id")
	_ = cmd.MarkFlagRequired("profile")
	return cmd
}
