package main

import (
	"fmt"
	"github.com/spf13/cobra"
)

func newEnqueueCmd() *cobra.Command {

	var profileID, pdfPath string
	var force bool

	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Queue the extraction of a résumé unless it was already extracted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			job, err := a.extractionService().RequestExtraction(cmd.Context(), profileID, pdfPath, force)
			if err != nil {
				return err
			}
			if job == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "profile %s is up to date, nothing queued\n", profileID)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "queued job %s\n", job.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "candidate profile id")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to the uploaded PDF")
	cmd.Flags().BoolVar(&force, "force", false, "extract even if the same file was already extracted")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}
