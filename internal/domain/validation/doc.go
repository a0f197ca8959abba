// Package validation implements the domain layer of the validation engine.
//
// This package follows Domain-Driven Design (DDD) principles:
//   - Contains only pure Go code with standard library imports (no external dependencies)
//   - Defines entity types (ExecutorSet, Registry) and value objects (VESID, Artifact, Finding)
//   - Implements the execution contract (ordering, no short-circuit, aggregation)
//   - Has no knowledge of rule technologies, XML parsing or file I/O
//
// # Core Types
//
// VESID is the group:artifact:version identifier of an executor set. It has
// a total order and a canonical string form that round-trips through ParseVESID.
//
// Artifact describes one rule resource: its validation type, either an embedded
// Resource or a reference to another published artifact, and an optional
// prerequisite expression with the context needed to evaluate it.
//
// Executor is the capability contract every rule technology adapter satisfies.
// The concrete executor lives in internal/execute.
//
// ExecutorSet is the ordered chain of executors for one document type. Run
// applies every executor, in order, and collects one LayerResult each.
//
// Result aggregates the layers of one run. Outcome distinguishes "nothing
// applied" from "everything passed".
//
// # Registry Collection
//
// Registry maps VESIDs to executor sets. It provides:
//   - Register with exactly-once semantics (ErrDuplicateIdentifier)
//   - All/FindAll/FindFirst returning copies in registration order
//   - Get for exact lookup, reporting a miss as ok == false
//
// Provider is the read-only interface that Registry implements.
//
// All types are generic over the document type D so adapters keep their own
// parsed-tree representation without type assertions.
package validation
