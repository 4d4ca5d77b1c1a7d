/*
Package pool runs tasks on a fixed set of CPU-pinned workers.

A Pool composes three parts:

  - a task monitor holding tasks submitted while every worker was busy,
  - a worker monitor holding the IDs of workers waiting for a task,
  - a worker array of N pinned workers.

Each worker calls back into the pool from its own thread whenever it is
about to act on its state. A Ready worker takes the oldest queued task or,
if there is none, registers itself as free; a Done worker is recycled back
to Ready at once. Submit takes a free worker when there is one and queues
the task otherwise. The two decisions are serialized so a task is never
left queued while a worker sits free.

Results are not handed back. A task writes into storage its submitter
owns, and the submitter reads it after WaitAll:

	p, err := pool.New(&pool.Config{Workers: 4, Affinity: affinity.Modulo()})
	if err != nil {
		log.Fatal(err)
	}
	defer p.Destroy()

	if err := p.Start(ctx); err != nil {
		log.Fatal(err)
	}

	squares := make([]int, 100)
	for i := range squares {
		task := worker.NewTask(func(n int, out *int) { *out = n * n }, i, &squares[i])
		if err := p.Submit(task); err != nil {
			log.Fatal(err)
		}
	}
	if err := p.WaitAll(); err != nil {
		log.Fatal(err)
	}

WaitAll returns once no task is queued and every worker is free. Stop lets
running tasks finish, stops the workers and releases WaitAll callers with
types.ErrMonitorAborted; tasks still queued are not run.

When Config.Registerer is set the pool exports Prometheus metrics under the
pinpool namespace: submitted tasks by dispatch path, completed and panicked
tasks, a task duration histogram, and free-worker and pending-task gauges.
*/
package pool
