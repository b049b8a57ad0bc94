// Package async provides utilities for parallel task execution.
//
// The helpers run multiple operations concurrently and hand back typed
// per-task results after a join barrier, so callers never share mutable
// state with in-flight goroutines.
package async

import (
	"context"
	"fmt"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes multiple tasks in parallel and returns the first error
// encountered. All tasks are started concurrently, and the function waits for
// all to complete before returning.
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	type result struct {
		name string
		err  error
	}

	resultChan := make(chan result, len(tasks))

	for _, task := range tasks {
		task := task
		go func() {
			err := task.Func(ctx)
			resultChan <- result{name: task.Name, err: err}
		}()
	}

	var firstError error
	for i := 0; i < len(tasks); i++ {
		res := <-resultChan
		if res.err != nil && firstError == nil {
			firstError = fmt.Errorf("%s: %w", res.name, res.err)
		}
	}

	return firstError
}

// Result pairs one task's value with its error.
type Result[T any] struct {
	Value T
	Err   error
}

// Collect runs one function per input concurrently and returns all results
// once every goroutine has finished. Results are positional: Collect(ctx, in,
// f)[i] is the outcome of f(ctx, in[i]). Unlike RunParallel, no error short-
// circuits the batch; callers inspect each result individually.
func Collect[I, T any](ctx context.Context, inputs []I, fn func(context.Context, I) (T, error)) []Result[T] {
	if len(inputs) == 0 {
		return nil
	}

	type indexed struct {
		pos int
		res Result[T]
	}

	resultChan := make(chan indexed, len(inputs))

	for i, input := range inputs {
		i, input := i, input
		go func() {
			value, err := fn(ctx, input)
			resultChan <- indexed{pos: i, res: Result[T]{Value: value, Err: err}}
		}()
	}

	results := make([]Result[T], len(inputs))
	for i := 0; i < len(inputs); i++ {
		r := <-resultChan
		results[r.pos] = r.res
	}

	return results
}
