// Package openai implements the OpenAI-compatible provider adapter.
//
// Any backend exposing POST {base_url}/chat/completions with the OpenAI
// request and response shapes works: OpenAI itself, Azure-style gateways,
// vLLM, Ollama and similar local servers.
//
//	p, err := openai.NewProvider(providers.Config{
//	    Name:    "openai",
//	    BaseURL: "https://api.openai.com/v1",
//	    APIKey:  os.Getenv("OPENAI_API_KEY"),
//	    Timeout: 30 * time.Second,
//	})
//
// Streaming and tool calling are not supported.
package openai
