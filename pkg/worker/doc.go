/*
Package worker provides CPU-pinned workers and the fixed worker array the
pool is built from.

# Overview

A Worker owns one OS thread. When started it locks its goroutine to that
thread, optionally pins the thread to a CPU chosen by an affinity.Strategy,
and then runs a small state machine:

	Stopped -> Started -> Ready -> Busy -> Done -> Ready -> ...
	any state -> Stopped

Only the worker thread changes the state. Other goroutines post commands
(assign, finish, stop) under the worker lock and wait on its condition
variable for the thread to act on them. A stop request is honored between
states, so a running task always completes.

# Callback

Run accepts a Callback that the worker invokes on its own thread at every
loop iteration, with the worker lock held, before acting on its state. The
pool uses it to hand a queued task to a Ready worker and to recycle a Done
worker without a polling goroutine. Inside the callback only the Control
methods may be used.

# Tasks

Anything implementing types.Task can run on a worker. FuncTask binds a
typed function to caller-owned arguments and result storage:

	var total int
	task := worker.NewTask(func(xs []int, out *int) {
		for _, x := range xs {
			*out += x
		}
	}, []int{1, 2, 3}, &total)

TaskFunc adapts a plain closure.

# Usage

	w, err := worker.New(0, worker.DefaultConfig())
	if err != nil {
		log.Fatal(err)
	}
	if err := w.Run(nil); err != nil {
		log.Fatal(err)
	}
	defer w.Stop()

	if err := w.AssignTask(task); err != nil {
		log.Fatal(err)
	}
	if err := w.WaitTask(); err != nil {
		log.Fatal(err)
	}
	_ = w.FinishTask()

An Array creates, runs and stops N workers as a unit and rolls back the
workers it already started when one of them fails.
*/
package worker
