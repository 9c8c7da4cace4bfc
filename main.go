package main

import "github.com/clear-benchmark/clear-benchmarking/benchmarker/cmd"

func main() {
	cmd.Execute()
}
