/*
Package sushrusha is a practice companion for community health workers.

A worker picks a clinical scenario (an antenatal visit, a child with
diarrhea) and talks to a simulated patient one turn at a time. Every response
is scored by an evaluator against the checklist of the current dialogue node,
and the session ends with a report: a weighted score, the critical items that
were missed, suggestions and the full transcript.

# Architecture

The client side is a state machine (package pkg/session) that drives one
session through the evaluator exchange and publishes immutable snapshots to
its subscribers. It depends only on the ports in pkg/ports:

  - Transport: the evaluator API. pkg/adapters/http implements it over JSON/HTTP.
  - DeviceStore: the persistent identifier that groups history. Implementations
    live in pkg/adapters/memory, internal/adapters/file and internal/adapters/redis.

The evaluator itself (internal/adapters/evaluator) is a keyword-matching
scorer over YAML scenario graphs, served with chi. Run it locally with

	sushrusha evaluator serve --addr :8000

and practice against it with

	sushrusha scenarios
	sushrusha play anc-visit --lang hi

# Embedding

	client := http.NewClient("http://localhost:8000")
	m := session.NewMachine(client, session.WithDeviceID(id))
	defer m.Dispose()

	snaps, cancel := m.Subscribe()
	defer cancel()

	if err := m.Start(ctx, "anc-visit", "en"); err != nil {
		return err
	}
	err := m.Submit(ctx, "Namaste! Any bleeding or headache?")
*/
package sushrusha
