// Package gemini implements the Google Gemini adapter over the
// streamGenerateContent REST endpoint with alt=sse.
//
// Roles are mapped the way Gemini expects: "assistant" becomes "model" and
// every other role, system included, becomes "user". Generation defaults are
// temperature 0.7, 4096 output tokens and topP 0.95.
package gemini
