/*
Package resilience provides the circuit breaker in front of the repository API.

A breaker trips after repeated upstream failures so that a frame whose API is
down renders its network error promptly instead of waiting on every timeout.
Cancelled requests are not counted: superseded navigations cancel their fetch
routinely.

	breaker := resilience.New("repository", resilience.Settings{
		Timeout:     10 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 3 },
	})

	entry, err := resilience.Do(breaker, func() (*Entry, error) {
		return fetch(ctx)
	})

State machine:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                          Open
*/
package resilience
