// Package client is the outbound HTTP client used to reach the repository
// read API.
//
// Built on go-resty/resty over a pooled retryablehttp transport, with an
// x/time/rate limiter and a resilience.Breaker in front of every call.
// Requests are not retried: a failed navigation is retried by the user.
//
//	c := client.NewClient(client.Options{BaseURL: "http://repo:8080"})
//	req, err := c.WithCookies(r.Cookies()).Request(ctx)
//	resp, err := c.ExecuteWithBreaker(func() (*resty.Response, error) {
//		return req.Get("/api/v1/repo/tree_entry")
//	})
package client
