package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quillbooks/quillbooks/internal/archive"
	"github.com/quillbooks/quillbooks/internal/config"
	"github.com/quillbooks/quillbooks/internal/ingest"
	"github.com/quillbooks/quillbooks/internal/logger"
	"github.com/quillbooks/quillbooks/internal/store"
)

func main() {
	var (
		filePath    string
		orgID       string
		accountID   string
		accountName string
	)

	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Import a bank CSV export into the ledger",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()
			cfg := config.Load()

			data, err := os.ReadFile(filePath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", filePath, err)
			}

			db, err := store.Open(cfg.DatabaseURL, log)
			if err != nil {
				return err
			}
			defer db.Close()

			extractor := ingest.NewGeminiExtractor(cfg.GeminiAPIKey, cfg.GeminiModel, log)
			archiver := archive.New(cfg.ArchiveBucket, log)
			pipeline := ingest.New(extractor, db, archiver, log)

			req := ingest.Request{
				CSVContent: string(data),
				OrgID:      orgID,
			}
			if accountID != "" {
				req.AccountID = &accountID
			}
			if accountName != "" {
				req.AccountName = &accountName
			}

			imported, err := pipeline.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			fmt.Printf("Imported %d transactions\n", imported)
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&filePath, "file", "f", "", "path to the CSV file")
	rootCmd.Flags().StringVar(&orgID, "org", "", "organization id to import into")
	rootCmd.Flags().StringVar(&accountID, "account-id", "", "ledger account id (optional)")
	rootCmd.Flags().StringVar(&accountName, "account-name", "", "account display name (optional)")
	_ = rootCmd.MarkFlagRequired("file")
	_ = rootCmd.MarkFlagRequired("org")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
