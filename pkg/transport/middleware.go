package transport

// Middleware wraps a TaskRunner with cross-cutting behavior.
type Middleware func(TaskRunner) TaskRunner

// Chain composes middlewares so the first one listed is the outermost.
func Chain(runner TaskRunner, middlewares ...Middleware) TaskRunner {
	for i := len(middlewares) - 1; i >= 0; i-- {
		runner = middlewares[i](runner)
	}
	return runner
}
