package script

import (
	"fmt"
	"io"
	"os"
)

// EngineDelegate is the sole channel by which interpreter diagnostics,
// errors and printed results reach the outside world.
type EngineDelegate interface {
	OnConsolePrint(text string)
}

// WriterDelegate prints each console line to a writer.
type WriterDelegate struct {
	W io.Writer
}

func (d *WriterDelegate) OnConsolePrint(text string) {
	fmt.Fprintln(d.W, text)
}

// NullDelegate swallows all output, for headless hosts.
type NullDelegate struct{}

func (NullDelegate) OnConsolePrint(string) {}

// RegisterDelegates populates the delegate registry with the built-in
// sinks. "stdio" is the initial default.
func RegisterDelegates() {
	Delegates.Register("stdio", func() EngineDelegate { return &WriterDelegate{W: os.Stdout} })
	Delegates.Register("null", func() EngineDelegate { return NullDelegate{} })
	Delegates.SetDefault("stdio")
}
