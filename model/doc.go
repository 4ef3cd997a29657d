// Package model defines the provider-agnostic Answer Provider abstraction used
// by generative agents.
//
// Core pieces:
//   - Model, a synchronous Generate(ctx, Request) call returning answer text
//   - ProviderError and the configuration sentinels (ErrMissingCredential,
//     ErrProviderUnavailable) that agents turn into Thought events
//   - Resolver, which reads credentials on every run instead of caching them
//   - MockModel for tests
//
// Vendor adapters (gemini, openai, anthropic) live in sub-packages so the
// agents stay decoupled from vendor SDKs.
package model
