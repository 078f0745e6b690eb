// Package llm talks to generative AI providers for jet photo analysis and the
// aviation chat assistant. It supports Gemini and OpenAI, with retry logic,
// rate limiting, and caching of analysis results by image digest.
package llm
