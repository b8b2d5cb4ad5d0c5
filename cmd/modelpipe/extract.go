package main

import (
	"github.com/spf13/cobra"

	"github.com/shivavenkatesh/modelpipe/internal/config"
	"github.com/shivavenkatesh/modelpipe/internal/convert"
	"github.com/shivavenkatesh/modelpipe/internal/protocol"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Serve DOCX extraction over stdin/stdout",
	Long: `Run the persistent document extraction server.

The server prints {"ready": true} at startup and {"initialized": true}
once its converter is built, then reads one file path per line from stdin
until the stream closes. Every path is answered with exactly one JSON
line: a success payload carrying the markdown text, word and character
counts, table and image counts and the structured extraction with image
payloads stripped, or {"success": false, "error": ...}. A failed document
never stops the server.

The converter accepts DOCX only, so support for unrelated formats is
never loaded. Diagnostics go to stderr; stdout carries protocol JSON
exclusively.

Examples:
  modelpipe extract < paths.txt
  printf '%s\n' report.docx notes.docx | modelpipe extract`,
	Args: cobra.NoArgs,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level)

	srv := protocol.NewServer(protocol.Config{
		NewConverter: func() (protocol.Converter, error) {
			c, err := convert.New(convert.Options{
				Formats:     []convert.Format{convert.FormatDOCX},
				MaxFileSize: int64(cfg.Extraction.MaxFileSizeMB) * 1024 * 1024,
				Logger:      logger,
			})
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		CacheSize: cfg.Extraction.CacheSize,
		Logger:    logger,
	})
	return srv.Run()
}
