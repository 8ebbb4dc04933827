// Package hook implements the hook execution engine.
//
// Applications register callables against a category and a name (or the
// category's wildcard) in a Table. An Engine resolves the candidates for
// an incoming Request, consults a permission.Gate, and invokes the
// candidates one after another until one returns a non-empty value:
//
//	table := hook.NewTable()
//	table.Register(types.CategoryMethod, "greet", hook.Blocking(greet))
//	table.Freeze()
//
//	engine := hook.NewEngine(table, hook.WithGate(gate))
//	res := engine.Dispatch(hook.NewBlockingContext(ctx), hook.Request{
//		Category: types.CategoryMethod,
//		Name:     "greet",
//	})
//
// Callables are either Blocking or Suspendable. How a pending suspendable
// callable is awaited depends on the Mode of the ExecutionContext passed
// to the engine: a blocking host waits for it in place, a cooperative
// host keeps its Scheduler free and resumes the dispatch when the callable
// finishes or the context deadline passes.
//
// Failures of individual callables never reach the caller. They are
// reported to a Sink and the dispatch moves on to the next candidate.
package hook
