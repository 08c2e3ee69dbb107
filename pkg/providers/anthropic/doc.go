// Package anthropic implements the Anthropic Messages API adapter.
//
// System messages are lifted into the request's system field and consecutive
// turns from the same speaker are merged, since the API requires strict
// user/assistant alternation. Text is relayed from content_block_delta
// events; an in-stream error event ends the stream with a typed error
// (rate_limit_error becomes providers.RateLimitError).
//
//	provider, err := anthropic.NewProvider(providers.ProviderConfig{
//	    Name:   "claude",
//	    APIKey: os.Getenv("ANTHROPIC_API_KEY"),
//	})
package anthropic
