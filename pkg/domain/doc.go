/*
Package domain contains the core data model of a training session.

It defines the shapes exchanged with the remote evaluator (dialogue nodes,
turn evaluations, progress, reports, history summaries) and the client-side
session state (phase, transcript, snapshot). The package is pure: it performs
no I/O and has no dependencies beyond the standard library.

# Key Entities

  - DialogueNode: one turn of patient speech and its node key.
  - TurnEvaluation: how a worker response was scored against a checklist.
  - Session: the authoritative client state of a running simulation.
  - Snapshot: an immutable copy of a Session published after every transition.
  - Report: the final scored report produced by the evaluator.
*/
package domain
