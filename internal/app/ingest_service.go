package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"concierge/internal/model"
)

const (
	defaultChunkSize    = 512
	defaultChunkOverlap = 64
	embeddingBatchSize  = 10
)

var (
	ErrEmptyContent           = errors.New("content is empty")
	ErrEmbeddingCountMismatch = errors.New("embedding count mismatch")
)

type IngestInput struct {
	PageURL     string
	PageTitle   string
	PageSummary string
	Corpus      string
	Content     string
}

type IngestResult struct {
	Sections int `json:"sections"`
	Tokens   int `json:"tokens"`
}

// IngestService splits page text into overlapping sections, embeds them and
// stores them for retrieval.
type IngestService struct {
	writer    SectionWriter
	embedder  Embedder
	tokenizer Tokenizer
	log       zerolog.Logger
}

func NewIngestService(writer SectionWriter, embedder Embedder, tokenizer Tokenizer, log zerolog.Logger) *IngestService {
	return &IngestService{writer: writer, embedder: embedder, tokenizer: tokenizer, log: log}
}

func (s *IngestService) Ingest(ctx context.Context, in IngestInput) (*IngestResult, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	chunks := chunkText(content, defaultChunkSize, defaultChunkOverlap)

	embeddings, err := s.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(chunks) {
		return nil, ErrEmbeddingCountMismatch
	}

	result := &IngestResult{}
	sections := make([]model.Section, len(chunks))
	for i, chunk := range chunks {
		n, err := s.tokenizer.Count(chunk)
		if err != nil {
			return nil, fmt.Errorf("count section tokens failed: %w", err)
		}
		sections[i] = model.Section{
			Content:     chunk,
			Tokens:      n,
			PageURL:     in.PageURL,
			PageTitle:   in.PageTitle,
			PageSummary: in.PageSummary,
			Corpus:      in.Corpus,
			Embedding:   model.Embedding(embeddings[i]),
		}
		result.Tokens += n
	}
	if err := s.writer.CreateBatch(ctx, sections); err != nil {
		return nil, fmt.Errorf("store sections failed: %w", err)
	}
	result.Sections = len(sections)
	s.log.Info().Str("page_url", in.PageURL).Int("sections", result.Sections).Int("tokens", result.Tokens).Msg("page ingested")
	return result, nil
}

// embedAll calls the embedder in batches when it supports them and one text
// at a time otherwise.
func (s *IngestService) embedAll(ctx context.Context, chunks []string) ([][]float32, error) {
	batcher, ok := s.embedder.(BatchEmbedder)
	embeddings := make([][]float32, 0, len(chunks))
	if !ok {
		for _, chunk := range chunks {
			vec, err := s.embedder.Embed(ctx, chunk)
			if err != nil {
				return nil, fmt.Errorf("embed section failed: %w", err)
			}
			embeddings = append(embeddings, vec)
		}
		return embeddings, nil
	}
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := batcher.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed section batch failed: %w", err)
		}
		embeddings = append(embeddings, batch...)
	}
	return embeddings, nil
}

// chunkText splits text into overlapping chunks by rune count.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		size = defaultChunkSize
	}
	if overlap >= size {
		overlap = size / 2
	}
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		i += size - overlap
		if i >= len(runes) {
			break
		}
	}
	return chunks
}
