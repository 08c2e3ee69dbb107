// Package providers defines the backend capability every text-generation
// adapter implements, along with the shared HTTP plumbing and error types the
// adapters use.
//
// # Overview
//
// A backend is anything that can turn an ordered conversation into a lazy
// sequence of text fragments. The routing layer never sees request framing or
// chunk decoding; it only calls Provider.Chat and reads the returned channel.
//
// # Architecture
//
//  1. Provider Interface - the single capability contract (Name, Type, Chat, Close)
//  2. Base HTTP Provider - connection pooling, retries for transport errors,
//     status-code mapping and optional client-side pacing
//  3. SSE Reader - line-oriented Server-Sent Events decoding shared by adapters
//  4. Adapters - openai (OpenRouter and other OpenAI-compatible APIs),
//     gemini and anthropic subpackages
//
// # Basic Usage
//
//	provider, err := gemini.NewProvider(providers.ProviderConfig{
//	    Name:    "gemini",
//	    Type:    "gemini",
//	    APIKey:  os.Getenv("GEMINI_API_KEY"),
//	    Timeout: 60 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	chunks, err := provider.Chat(ctx, []providers.Message{
//	    {Role: providers.RoleUser, Content: "Hello!"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for chunk := range chunks {
//	    if chunk.Error != nil {
//	        log.Fatal(chunk.Error)
//	    }
//	    fmt.Print(chunk.Delta)
//	}
//
// # Error Handling
//
// Adapters report failures with typed errors. The routing layer only needs two
// facts from a failure, its message and an optional HTTP status, which
// StatusCode extracts from any error in this package:
//
//   - RateLimitError: upstream returned 429
//   - AuthError: upstream rejected the credentials (401, 403)
//   - ProviderError: any other upstream status or transport failure
//   - ParseError: malformed upstream response
//   - StreamError: the stream broke after it started
//   - ConfigError: the adapter is misconfigured (for example a missing API key)
//
// # Thread Safety
//
// Providers are safe for concurrent use. Each Chat call owns its own upstream
// connection and goroutine; cancelling the context stops the goroutine and
// releases the connection.
package providers
