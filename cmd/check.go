package main

import (
	"fmt"
	"github.com/maxaizer/cv-extractor/internal/entities"
	"github.com/maxaizer/cv-extractor/internal/services"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {

	var profileID, pdfPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report whether a résumé needs to be extracted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {

			a, err := setup(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			fileHash, err := services.HashFile(pdfPath)
			if err != nil {
				return err
			}

			needed := a.cache.ShouldExtract(cmd.Context(), profileID, fileHash, entities.CVSchemaVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "file %s, extraction needed: %t\n", fileHash, needed)
			return nil
		},
	}

	cmd.Flags().StringVar(&profileID, "profile", "", "candidate profile id")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "path to the uploaded PDF")
	_ = cmd.MarkFlagRequired("profile")
	_ = cmd.MarkFlagRequired("pdf")
	return cmd
}
