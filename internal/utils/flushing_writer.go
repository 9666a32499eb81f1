package utils

import (
	"io"
	"reflect"
	"sync"
)

// sinkLocks holds one mutex per destination so every FlushingWriter wrapping the same
// destination serializes on it. Log entries and progress lines from concurrent batch tasks
// share stderr and must not interleave.
var sinkLocks sync.Map

// FlushingWriter writes each chunk under the destination's lock and flushes buffered
// destinations after every write.
type FlushingWriter struct {
	destination io.Writer
	lock        *sync.Mutex
}

// NewFlushingWriter wraps destination unless it is already a FlushingWriter.
func NewFlushingWriter(destination io.Writer) io.Writer {
	if destination == nil {
		return nil
	}
	if _, alreadyWrapped := destination.(*FlushingWriter); alreadyWrapped {
		return destination
	}
	return &FlushingWriter{destination: destination, lock: lockFor(destination)}
}

func lockFor(destination io.Writer) *sync.Mutex {
	if !reflect.TypeOf(destination).Comparable() {
		return &sync.Mutex{}
	}
	lock, _ := sinkLocks.LoadOrStore(destination, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// Write delegates to the destination and flushes it when it supports Flush.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	flushingWriter.lock.Lock()
	defer flushingWriter.lock.Unlock()

	bytesWritten, writeError := flushingWriter.destination.Write(data)
	if writeError != nil {
		return bytesWritten, writeError
	}
	if flushable, canFlush := flushingWriter.destination.(interface{ Flush() error }); canFlush {
		if flushError := flushable.Flush(); flushError != nil {
			return bytesWritten, flushError
		}
	}
	return bytesWritten, nil
}
