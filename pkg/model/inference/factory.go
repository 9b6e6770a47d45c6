package inference

// New creates an Inferencer from a provider name and options.
// Provider names are those registered in pkg/llm: "anthropic", "openai",
// "ollama".
func New(provider string, opts ...RemoteOption) (Inferencer, error) {
	return NewRemote(provider, opts...)
}
