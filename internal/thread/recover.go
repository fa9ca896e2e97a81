package thread

import (
	"fmt"
	"runtime"
)

// Run calls f and returns its error, or the recovered panic as an error.
func Run(f func() error) (err error) {
	defer func() {
		err = PanicToError(recover(), err)
	}()
	return f()
}

func PanicToError(thrown interface{}, defaultErr error) error {
	if thrown == nil {
		return defaultErr
	}
	const size = 64 << 10
	trace := make([]byte, size)
	trace = trace[:runtime.Stack(trace, false)]
	if err, ok := thrown.(error); ok {
		return fmt.Errorf("panic: %w\n%s", err, trace)
	}
	return fmt.Errorf("panic: %v\n%s", thrown, trace)
}
