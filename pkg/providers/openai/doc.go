// Package openai implements the adapter for OpenAI-compatible chat APIs.
//
// Three backend types share this adapter:
//
//   - openrouter: OpenRouter (default base URL and model, attribution headers)
//   - openai: api.openai.com
//   - generic: any other server speaking the OpenAI chat completions protocol
//     (base_url and model are required)
//
// Requests are sent with stream=true through github.com/sashabaranov/go-openai.
// Content deltas are relayed as they arrive; chunks that fail to decode are
// skipped with a warning.
//
// # Basic Usage
//
//	provider, err := openai.NewProvider(providers.ProviderConfig{
//	    Name:   "openrouter",
//	    Type:   openai.TypeOpenRouter,
//	    APIKey: os.Getenv("OPENROUTER_API_KEY"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	chunks, err := provider.Chat(ctx, conversation)
//
// # Errors
//
// Upstream failures are reported as "OpenRouter Error: <status> - <message>"
// (or "OpenAI Error: ..."). HTTP 429, including a 429 code sent inside an
// open stream, becomes providers.RateLimitError so the dispatcher can fail
// over to the next backend.
package openai
