/*
Package session implements the client-side state machine of a training session.

A Machine drives one simulated conversation at a time:

	Idle -> Starting -> Active <-> Submitting -> Complete -> Finalizing -> Reported

Every transition publishes an immutable domain.Snapshot to subscribers. The
machine never holds its lock across a network exchange; the in-flight phases
(Starting, Submitting, Finalizing) serialize operations instead, so at most one
exchange per session is pending. After Dispose, responses that arrive are
discarded and the operation returns domain.ErrStaleResponse.
*/
package session
