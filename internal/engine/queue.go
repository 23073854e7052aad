package engine

import "github.com/mschulkind/layman/internal/ipc"

// Command is a control request waiting for its result. Reply is buffered so
// the consumer never blocks on a caller that gave up.
type Command struct {
	Text  string
	Reply chan string
}

// Notification is one unit of work for the reconciliation loop: either a
// compositor event or a control command, never both.
type Notification struct {
	Event   *ipc.Event
	Command *Command
}

// Queue funnels events and commands from any number of producers into the
// single consumer goroutine. Order is preserved per producer.
type Queue struct {
	ch chan Notification
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Notification, size)}
}

func (q *Queue) Push(n Notification) {
	q.ch <- n
}

// PushCommand enqueues a control command and returns the channel its result
// will arrive on.
func (q *Queue) PushCommand(text string) <-chan string {
	reply := make(chan string, 1)
	q.ch <- Notification{Command: &Command{Text: text, Reply: reply}}
	return reply
}

func (q *Queue) C() <-chan Notification {
	return q.ch
}
