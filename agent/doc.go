// Package agent contains the stock ACP agents and the building blocks for
// writing new ones. The package focuses on three concerns:
//
//  1. The parameterized runner (Template) shared by every toy agent
//  2. Concrete agents (Echo_Agent, Do_Nothing_Agent, Gemini_Agent, Expert_Agent)
//  3. Composition (SequentialAgent pipelines, ParallelAgent fan-out)
//
// Execution Model:
//   - An agent's Run receives a *core.RunContext and the run's input messages
//   - Events are pushed through the RunContext emit helpers, which block on
//     the bounded channel drained by the engine
//   - Per-run state stays local to Run; one agent value serves concurrent runs
//
// Generative agents resolve their Answer Provider once per run through a
// model.Resolver, so a missing credential is reported as a thought instead
// of failing the process.
package agent
