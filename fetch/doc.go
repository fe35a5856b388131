// Package fetch provides a configurable HTTP request client built on
// net/http. A single entry point (Client.Do) accepts a URL, a partial
// RequestConfig, a pre-built *http.Request or a *Request descriptor and
// layers request, response and error interceptors, per-attempt timeouts
// and automatic retries on top of the transport.
//
// Retries
//   - The retry budget comes from the request (WithRetries) or the client
//     defaults (Builder.WithRetries) and is clamped to the retry ceiling.
//   - Responses are retried while the attempt number is within the budget
//     and RetryOn matches (a StatusCodes set or a RetryFunc predicate).
//     The default set is 500, 502, 503 and 504.
//   - Attempt timeouts and transport failures are retried. Caller
//     cancellation, interceptor failures and decode failures are not.
//   - When the budget runs out on a retryable status, the last response is
//     returned with a nil error. When it runs out on an error, the last
//     error is returned.
//
// Backoff Strategy
//   - The base delay is RetryDelay, doubled per attempt when exponential
//     backoff is on, stretched by (1 + rand*jitter) when jitter is set and
//     capped at the maximum retry delay (30s by default).
//   - Cancelling the caller context during a backoff sleep stops the call.
//
// Timeouts
//   - Timeout applies to each attempt separately; 0 disables it.
//   - The caller context and an optional Signal context both abort the
//     in-flight attempt. Only the attempt deadline produces a TimeoutError.
//
// Notes
//   - Request interceptors run once per call; every attempt sends the
//     descriptor they produced. Response interceptors run once per attempt,
//     before the retry decision.
//   - Registering interceptors while requests are in flight is not
//     supported.
package fetch
