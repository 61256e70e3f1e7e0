// Package httputil provides HTTP helpers for clients of external services.
//
// [Retry] wraps requests with automatic retry for transient failures. Mark an
// error as transient by wrapping it in [RetryableError]; anything else stops
// the loop immediately:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// A server-provided Retry-After wait is carried in [RetryableError.After]
// and replaces the exponential delay for that attempt.
package httputil
