package cleaner

import (
	"errors"
	"strings"
	"testing"
)

// --- NoopCleaner Tests ---

func TestNoopCleaner_Clean(t *testing.T) {
	c := NewNoop()

	tests := []struct {
		name  string
		input string
	}{
		{"empty_string", ""},
		{"plain_text", "Hello, World!"},
		{"page_number_line", "Page 3\nBody"},
		{"whitespace", "  \n\t  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Clean(tt.input)
			if err != nil {
				t.Errorf("Clean() error = %v, want nil", err)
			}
			if got != tt.input {
				t.Errorf("Clean() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestNoopCleaner_Name(t *testing.T) {
	c := NewNoop()
	if got := c.Name(); got != "noop" {
		t.Errorf("Name() = %q, want %q", got, "noop")
	}
}

// --- ChainCleaner Tests ---

func TestChainCleaner_Empty(t *testing.T) {
	c := NewChain()

	input := "unchanged content"
	got, err := c.Clean(input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != input {
		t.Errorf("Clean() = %q, want %q", got, input)
	}
}

func TestChainCleaner_SingleCleaner(t *testing.T) {
	c := NewChain(NewNoop())

	input := "test content"
	got, err := c.Clean(input)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != input {
		t.Errorf("Clean() = %q, want %q", got, input)
	}
}

// upperCleaner upper-cases its input so chain ordering is observable.
type upperCleaner struct{}

func (c *upperCleaner) Clean(text string) (string, error) {
	return strings.ToUpper(text), nil
}

func (c *upperCleaner) Name() string {
	return "upper"
}

func TestChainCleaner_Order(t *testing.T) {
	// Upper-casing first turns "page 2" into "PAGE 2", which the
	// boilerplate cleaner still drops because it matches case-insensitively.
	c := NewChain(&upperCleaner{}, NewBoilerplate())

	got, err := c.Clean("page 2\nsection---one")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}

	if got != "SECTIONONE" {
		t.Errorf("Clean() = %q, want %q", got, "SECTIONONE")
	}
}

// errorCleaner is a test cleaner that always returns an error
type errorCleaner struct{}

func (c *errorCleaner) Clean(text string) (string, error) {
	return "", errors.New("test error")
}

func (c *errorCleaner) Name() string {
	return "error"
}

func TestChainCleaner_ErrorPropagation(t *testing.T) {
	c := NewChain(NewNoop(), &errorCleaner{}, NewBoilerplate())

	_, err := c.Clean("test")
	if err == nil {
		t.Fatal("expected error to propagate")
	}

	if !strings.Contains(err.Error(), "test error") {
		t.Errorf("expected error containing 'test error', got %v", err)
	}
}

func TestChainCleaner_Name(t *testing.T) {
	tests := []struct {
		name     string
		cleaners []Cleaner
		want     string
	}{
		{"empty", []Cleaner{}, "chain()"},
		{"single", []Cleaner{NewNoop()}, "chain(noop)"},
		{"double", []Cleaner{NewNoop(), NewBoilerplate()}, "chain(noop->boilerplate)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.cleaners...)
			if got := c.Name(); got != tt.want {
				t.Errorf("Name() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainCleaner_ErrorNamesStage(t *testing.T) {
	c := NewChain(NewNoop(), &errorCleaner{})

	_, err := c.Clean("test")
	if err == nil || !strings.HasPrefix(err.Error(), "error: ") {
		t.Errorf("expected error prefixed with stage name, got %v", err)
	}
}

func TestChainCleaner_SkipsNil(t *testing.T) {
	c := NewChain(nil, NewBoilerplate(), nil)
	if got := c.Name(); got != "chain(boilerplate)" {
		t.Errorf("Name() = %q, want %q", got, "chain(boilerplate)")
	}
}

// --- LineFilterCleaner Tests ---

func TestLineFilterCleaner(t *testing.T) {
	filter, err := NewLineFilter(`^\s*confidential\s*$`, `^curriculum vitae`)
	if err != nil {
		t.Fatalf("NewLineFilter() error = %v", err)
	}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no match", "Data Engineer\nBerlin", "Data Engineer\nBerlin"},
		{"case insensitive", "CONFIDENTIAL\nData Engineer", "Data Engineer"},
		{"prefix pattern", "Curriculum Vitae of Jane Doe\r\nSkills", "Skills"},
		{"partial line kept", "Confidential projects at Acme", "Confidential projects at Acme"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := filter.Clean(tt.input)
			if err != nil {
				t.Fatalf("Clean() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Clean() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLineFilterCleaner_InvalidPattern(t *testing.T) {
	if _, err := NewLineFilter(`(`); err == nil {
		t.Error("expected error for invalid pattern")
	}
}

func TestLineFilterCleaner_ChainedWithBoilerplate(t *testing.T) {
	filter, _ := NewLineFilter(`^confidential$`)
	c := NewChain(filter, NewBoilerplate())

	got, err := c.Clean("Confidential\nPage 2\nSenior  Analyst\n----\n")
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if got != "Senior Analyst " {
		t.Errorf("Clean() = %q, want %q", got, "Senior Analyst ")
	}
}
