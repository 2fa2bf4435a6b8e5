package ai

import (
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"concierge/internal/app"
)

// completionSource relays a legacy completion stream. go-openai returns
// io.EOF once the upstream sends [DONE], which is what app.Relay expects.
type completionSource struct {
	stream *openai.CompletionStream
}

func (s *completionSource) Recv() (app.Fragment, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return app.Fragment{}, err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return app.Fragment{}, fmt.Errorf("marshal completion chunk failed: %w", err)
	}
	frag := app.Fragment{Raw: raw}
	if len(resp.Choices) > 0 {
		frag.Text = resp.Choices[0].Text
	}
	return frag, nil
}

func (s *completionSource) Close() error { return s.stream.Close() }

type chatSource struct {
	stream *openai.ChatCompletionStream
}

func (s *chatSource) Recv() (app.Fragment, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return app.Fragment{}, err
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return app.Fragment{}, fmt.Errorf("marshal chat chunk failed: %w", err)
	}
	frag := app.Fragment{Raw: raw}
	if len(resp.Choices) > 0 {
		frag.Text = resp.Choices[0].Delta.Content
	}
	return frag, nil
}

func (s *chatSource) Close() error { return s.stream.Close() }
