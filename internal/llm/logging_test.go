package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"
)

type captureSink struct {
	events []RequestEvent
	err    error
}

func (c *captureSink) RecordLLMRequest(_ context.Context, ev RequestEvent) error {
	c.events = append(c.events, ev)
	return c.err
}

func TestLoggingRecordsSuccessEvent(t *testing.T) {
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 34},
	})
	sink := &captureSink{}
	p := WithLogging(mock, sink, zap.NewNop())

	ctx := WithPurpose(context.Background(), "plan")
	if _, err := p.Generate(ctx, Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	ev := sink.events[0]
	if !ev.Success {
		t.Error("Success = false")
	}
	if ev.Purpose != "plan" {
		t.Errorf("Purpose = %q", ev.Purpose)
	}
	if ev.InputTokens != 12 || ev.OutputTokens != 34 {
		t.Errorf("tokens = %d/%d", ev.InputTokens, ev.OutputTokens)
	}
}

func TestLoggingRecordsFailureEvent(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}})
	sink := &captureSink{}
	p := WithLogging(mock, sink, zap.NewNop())

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}

	if len(sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(sink.events))
	}
	if sink.events[0].Success {
		t.Error("Success = true for failed call")
	}
	if sink.events[0].ErrorMessage == "" {
		t.Error("ErrorMessage empty for failed call")
	}
}

func TestLoggingSinkFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	sink := &captureSink{err: errors.New("db closed")}
	p := WithLogging(mock, sink, zap.NewNop())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("sink failure leaked: %v", err)
	}
}

func TestLoggingNilSink(t *testing.T) {
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`{}`)})
	p := WithLogging(mock, nil, zap.NewNop())

	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
