package main

import (
	"fmt"
	"os"
	"runtime"
)

const (
	AppName    = "haze-obliterator"
	AppVersion = "1.0.0"
)

func main() {
	configureRuntime()

	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configureRuntime favours throughput for large float buffers.
func configureRuntime() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	runtime.SetGCPercent(200)
}
