/*
Package ports defines the driven ports (interfaces) of the training client.

These interfaces decouple the session state machine from concrete
implementations, allowing it to run against the HTTP evaluator, a scripted
fake in tests, or any other backend.

# Key Interfaces

  - Transport: one operation per remote evaluator capability.
  - DeviceStore: persists the write-once device identifier.
*/
package ports
