package testutil

import (
	"context"
	"testing"

	"github.com/firebase/genkit/go/ai"
)

func userRequest(text string) *ai.ModelRequest {
	return &ai.ModelRequest{
		Messages: []*ai.Message{
			{Role: ai.RoleUser, Content: []*ai.Part{ai.NewTextPart(text)}},
		},
	}
}

func TestMockLLMPatternMatching(t *testing.T) {
	m := NewMockLLM("fallback answer")
	m.AddResponse("outline", "the outline response")
	m.AddResponse("introduction", "the intro response")

	resp, err := m.generate(context.Background(), userRequest("Create a detailed OUTLINE for an article"), nil)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := resp.Message.Text(); got != "the outline response" {
		t.Errorf("response = %q", got)
	}

	resp, err = m.generate(context.Background(), userRequest("something unrelated"), nil)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := resp.Message.Text(); got != "fallback answer" {
		t.Errorf("fallback response = %q", got)
	}
}

func TestMockLLMRecordsCalls(t *testing.T) {
	m := NewMockLLM("ok")

	for _, prompt := range []string{"first", "second"} {
		if _, err := m.generate(context.Background(), userRequest(prompt), nil); err != nil {
			t.Fatal(err)
		}
	}

	calls := m.Calls()
	if len(calls) != 2 {
		t.Fatalf("recorded %d calls, want 2", len(calls))
	}
	if calls[0].UserMessage != "first" || calls[1].UserMessage != "second" {
		t.Errorf("calls = %+v", calls)
	}

	m.Reset()
	if len(m.Calls()) != 0 {
		t.Error("Reset did not clear calls")
	}
}

func TestMockEmbedderDeterminism(t *testing.T) {
	e := NewMockEmbedder(8)

	a := e.vectorFor("same content")
	b := e.vectorFor("same content")
	c := e.vectorFor("different content")

	if len(a) != 8 {
		t.Fatalf("dimension = %d, want 8", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same content produced different vectors")
		}
	}

	identical := true
	for i := range a {
		if a[i] != c[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Error("different content produced identical vectors")
	}
}

func TestMockEmbedderExplicitVector(t *testing.T) {
	e := NewMockEmbedder(3)
	e.SetVector("pinned", []float32{1, 0, 0})

	got := e.vectorFor("pinned")
	if got[0] != 1 || got[1] != 0 || got[2] != 0 {
		t.Errorf("vector = %v, want [1 0 0]", got)
	}
}
