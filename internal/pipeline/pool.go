package pipeline

// Pool is a fixed-size worker pool for model inference and external calls.
// Its size bounds cross-connection parallelism: with two workers, one
// window's speaker-ID and transcription tasks run truly in parallel, while a
// backlog of further windows queues behind them.
type Pool struct {
	tasks chan *Task
	done  chan struct{}
}

// Task is a unit of submitted work. Wait blocks until it has run.
type Task struct {
	fn       func()
	finished chan struct{}
}

// Wait blocks until the task has completed.
func (t *Task) Wait() {
	<-t.finished
}

// NewPool starts a pool with the given number of worker goroutines.
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan *Task),
		done:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	for {
		select {
		case task := <-p.tasks:
			task.fn()
			close(task.finished)
		case <-p.done:
			return
		}
	}
}

// Submit schedules fn on the pool and returns a Task to join on. Callers
// that fan out must submit every task before waiting on any of them.
func (p *Pool) Submit(fn func()) *Task {
	task := &Task{fn: fn, finished: make(chan struct{})}
	select {
	case p.tasks <- task:
	case <-p.done:
		close(task.finished)
	}
	return task
}

// Close stops the workers. In-flight tasks finish; queued tasks are dropped.
func (p *Pool) Close() {
	close(p.done)
}
