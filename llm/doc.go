// Package llm provides the concurrency envelope around model calls and
// the LLM-backed pipeline stages.
//
// The model call itself is a collaborator behind the [Service] interface.
// [Runner] executes one [Task] per block on a bounded errgroup with
// per-task retries; a failed task leaves its block unchanged and is
// logged, never returned.
//
// Two stage shapes exist:
//
//   - Complex stages such as [TableProcessor] run their own wave.
//   - Simple stages implement [SimpleProcessor] and are batched by a
//     [MetaProcessor] into one wave, so the bound applies across stages.
//
// Results are written back on the calling goroutine after the wave has
// completed. When [Config.Enabled] is false, or no service is set, every
// stage is a no-op.
package llm
