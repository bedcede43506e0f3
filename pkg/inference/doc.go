// Package inference wraps the hosted model endpoint behind the Generator
// contract: generate(model, prompt, maxTokens) -> text or classified
// failure.
//
// The upstream call is a black box whose latency and consumption cost are
// both unknown until it returns. Every call runs under a bounded timeout;
// a timeout or transport failure is a retryable error and must never be
// charged consumption units. No transport or decoding error leaves this
// package unclassified.
package inference
