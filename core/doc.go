// Package core provides the foundational domain types and interfaces of the
// agent communication protocol runtime. It defines:
//
//   - Messages and Parts (the content exchanged with agents)
//   - Events (the closed Thought / Output variant streamed by a run)
//   - AgentDescriptor (static registration metadata)
//   - RunContext (the per-run execution scope handed to Agent.Run)
//   - Run records and the RunStore interface used to persist them
//
// Implementation concerns (dispatch, persistence backends, transports and
// concrete agents) live in sibling packages and depend on these small
// interfaces only.
package core
