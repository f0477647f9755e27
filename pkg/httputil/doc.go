// Package httputil provides the HTTP client ivm uses to talk to the release
// server.
//
// # Overview
//
//   - [Client]: GET as text, streaming GET and HEAD existence checks
//   - [RetryPolicy]: how often a failed request is attempted again
//
// # Client
//
// Every request carries a "User-Agent: ivm <version>" header and is bounded
// by the client timeout (10 seconds by default). Failures are
// [errors.ErrCodeNetwork] errors whose message names the request:
//
//	client := httputil.NewClient(10*time.Second, httputil.DefaultRetryPolicy())
//	text, err := client.GetText(ctx, "https://releases.inko-lang.org/manifest.txt")
//	// err: GET https://releases.inko-lang.org/manifest.txt failed: status 503
//
// # Retry
//
// GET and HEAD requests are attempted again after network errors and 5xx
// responses. Any other status, such as the 404 of a HEAD request for a version
// that was never released, fails at once. The policy comes from the
// http_attempts and http_retry_delay settings; by default a request is made
// once.
package httputil
