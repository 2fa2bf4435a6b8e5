package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"concierge/internal/app"
	"concierge/internal/bootstrap"
	"concierge/internal/model"
	"concierge/internal/pkg/pdfextract"
)

type ingestFlags struct {
	url     string
	title   string
	summary string
	corpus  string
}

func newIngestCommand() *cobra.Command {
	var flags ingestFlags
	cmd := &cobra.Command{
		Use:   "ingest <file>",
		Short: "Split a text, markdown or PDF file into sections and store their embeddings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ingest(cmd, args[0], flags)
		},
	}
	cmd.Flags().StringVar(&flags.url, "url", "", "page url the sections belong to (required)")
	cmd.Flags().StringVar(&flags.title, "title", "", "page title")
	cmd.Flags().StringVar(&flags.summary, "summary", "", "page summary")
	cmd.Flags().StringVar(&flags.corpus, "corpus", model.CorpusDefault, "corpus tag (empty, kickstartds or external)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func ingest(cmd *cobra.Command, path string, flags ingestFlags) error {
	switch flags.corpus {
	case model.CorpusDefault, model.CorpusKickstartDS, model.CorpusExternal:
	default:
		return fmt.Errorf("unknown corpus %q", flags.corpus)
	}

	content, err := readContent(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	a, err := bootstrap.New(ctx, bootstrap.Options{})
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer func() { _ = a.Close() }()

	result, err := a.Ingest.Ingest(ctx, app.IngestInput{
		PageURL:     flags.url,
		PageTitle:   flags.title,
		PageSummary: flags.summary,
		Corpus:      flags.corpus,
		Content:     content,
	})
	if errors.Is(err, app.ErrEmptyContent) {
		return fmt.Errorf("%s has no extractable text", path)
	}
	if err != nil {
		return err
	}

	a.Log.Info().
		Str("file", path).
		Str("page_url", flags.url).
		Int("sections", result.Sections).
		Int("tokens", result.Tokens).
		Msg("ingested")
	fmt.Fprintf(cmd.OutOrStdout(), "stored %d sections (%d tokens)\n", result.Sections, result.Tokens)
	return nil
}

func readContent(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s failed: %w", path, err)
	}
	defer f.Close()

	if pdfextract.IsPDF(path) {
		text, err := pdfextract.ExtractText(f)
		if err != nil {
			return "", fmt.Errorf("extract pdf text failed: %w", err)
		}
		return text, nil
	}
	b, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s failed: %w", path, err)
	}
	return string(b), nil
}
