package main

import (
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/upb/pdf-qa/app"
	"go.uber.org/zap"
)

func NewAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask --file <document> <question>",
		Short: "Index a document and answer one question",
		Long: `Run the upload and ask pipelines in-process and print the JSON response.
Without --file the question is asked against the store's existing document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAsk,
	}

	cmd.Flags().StringP("file", "f", "", "PDF, text or markdown file to index first")
	cmd.Flags().Bool("debug", false, "Include retrieval and generation diagnostics")

	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path, _ := cmd.Flags().GetString("file")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	deps, err := app.NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(ctx)

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}

		doc, err := deps.Ingest.Ingest(ctx, filepath.Base(path), mime.TypeByExtension(filepath.Ext(path)), data)
		if err != nil {
			return fmt.Errorf("index %s: %w", path, err)
		}
		logger.Debug("document indexed",
			zap.String("document_id", doc.ID.String()),
			zap.Int("chunks", doc.ChunkCount),
		)
	}

	resp, err := deps.QA.Ask(ctx, strings.Join(args, " "), debug)
	if err != nil {
		return fmt.Errorf("ask: %w", err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
