package inference

import (
	"errors"
	"testing"
)

// --- New ---

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New("local"); err == nil {
		t.Fatal("New(\"local\") should return an error")
	}
}

func TestNew_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := New("openai")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("New(\"openai\") error = %v, want ErrMissingAPIKey", err)
	}
}

func TestNew_APIKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	inf, err := New("openai", WithModel("gpt-4o"))
	if err != nil {
		t.Fatalf("New(\"openai\") error = %v", err)
	}
	if inf.Name() != "openai" {
		t.Errorf("Name() = %q, want openai", inf.Name())
	}
	if got := inf.(*Remote).Model(); got != "gpt-4o" {
		t.Errorf("Model() = %q, want gpt-4o", got)
	}
}

func TestNew_OllamaNeedsNoKey(t *testing.T) {
	inf, err := New("ollama")
	if err != nil {
		t.Fatalf("New(\"ollama\") error = %v", err)
	}
	if !inf.Available() {
		t.Error("remote inferencer should report available")
	}
}
