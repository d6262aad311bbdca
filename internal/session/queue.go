// Copyright (c) 2025 Pgscope
// Licensed under the MIT License. See LICENSE file in the project root for details.

package session

import "sync"

// queue is an unbounded FIFO built from a pair of channels and a pump
// goroutine holding the overflow. push never blocks, regardless of whether
// anyone is receiving; receive from out until it is closed.
type queue[T any] struct {
	in   chan T
	out  chan T
	stop chan struct{}
	once sync.Once
}

func newQueue[T any]() *queue[T] {
	q := &queue[T]{
		in:   make(chan T),
		out:  make(chan T),
		stop: make(chan struct{}),
	}
	go q.pump()
	return q
}

func (q *queue[T]) pump() {
	var buf []T
	for {
		if len(buf) == 0 {
			select {
			case item := <-q.in:
				buf = append(buf, item)
			case <-q.stop:
				close(q.out)
				return
			}
			continue
		}
		select {
		case item := <-q.in:
			buf = append(buf, item)
		case q.out <- buf[0]:
			buf = buf[1:]
		case <-q.stop:
			close(q.out)
			return
		}
	}
}

// push enqueues item. It returns false, dropping the item, once the queue
// has been closed.
func (q *queue[T]) push(item T) bool {
	select {
	case <-q.stop:
		return false
	default:
	}
	select {
	case q.in <- item:
		return true
	case <-q.stop:
		return false
	}
}

// close shuts the queue down. Idempotent; buffered items not yet received
// are discarded.
func (q *queue[T]) close() {
	q.once.Do(func() { close(q.stop) })
}
