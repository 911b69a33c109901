package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/coursecraft-backend/internal/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/openai"
	"github.com/yungbote/coursecraft-backend/internal/platform/qdrant"
)

const (
	discussionTopK        = 3
	sourcePreviewMaxChars = 200
)

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type DiscussionAnswer struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Discussion answers free-form questions about an ingested curriculum,
// citing previews of the chunks it retrieved.
type Discussion interface {
	Discuss(ctx context.Context, collection string, query string, history []ChatTurn) (*DiscussionAnswer, error)
}

type discussion struct {
	log     *logger.Logger
	ai      openai.Client
	vectors qdrant.VectorStore
}

func NewDiscussion(log *logger.Logger, ai openai.Client, vectors qdrant.VectorStore) Discussion {
	return &discussion{
		log:     log.With("service", "CurriculumDiscussion"),
		ai:      ai,
		vectors: vectors,
	}
}

const discussionSystemPrompt = "You are a helpful assistant discussing a curriculum document with a teacher. " +
	"Ground every answer in the provided context. If the context is insufficient, say so."

func (d *discussion) Discuss(ctx context.Context, collection string, query string, history []ChatTurn) (*DiscussionAnswer, error) {
	collection = strings.TrimSpace(collection)
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: fmt.Errorf("query required")}
	}

	embeddings, err := d.ai.Embed(ctx, []string{query})
	if err != nil {
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: err}
	}

	matches, err := d.vectors.Search(ctx, collection, embeddings[0], discussionTopK)
	if err != nil {
		var opError *qdrant.OperationError
		if errors.As(err, &opError) && opError.Code == qdrant.OperationErrorNotFound {
			return nil, &Error{Code: ErrorCollectionNotFound, Collection: collection, Cause: err}
		}
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: err}
	}

	sources := make([]string, 0, len(matches))
	for _, m := range matches {
		text, _ := m.Payload["text"].(string)
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		sources = append(sources, previewText(text))
	}

	var prompt strings.Builder
	prompt.WriteString("Context:\n")
	prompt.WriteString(renderMatchContext(matches))
	if len(history) > 0 {
		prompt.WriteString("\n\nConversation so far:\n")
		for _, turn := range history {
			role := strings.TrimSpace(turn.Role)
			if role == "" {
				role = "user"
			}
			prompt.WriteString(fmt.Sprintf("%s: %s\n", role, strings.TrimSpace(turn.Content)))
		}
	}
	prompt.WriteString("\nQuestion: ")
	prompt.WriteString(query)

	answer, err := d.ai.GenerateText(ctx, discussionSystemPrompt, prompt.String())
	if err != nil {
		return nil, &Error{Code: ErrorService, Collection: collection, Cause: err}
	}

	return &DiscussionAnswer{
		Answer:  strings.TrimSpace(answer),
		Sources: sources,
	}, nil
}

func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= sourcePreviewMaxChars {
		return text
	}
	return string(runes[:sourcePreviewMaxChars])
}
