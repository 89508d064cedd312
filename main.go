// Package main provides the entry point for v7sim.
// v7sim is a functional ARMv7-A CPU emulator built on Akita.
//
// For the full CLI, use: go run ./cmd/v7sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("v7sim - ARMv7-A CPU Emulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: v7sim [options] <program>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -config    Path to machine configuration JSON file")
	fmt.Println("  -raw       Load the program as a raw binary image")
	fmt.Println("  -semihost  Enable ARM semihosting")
	fmt.Println("  -trace     Print every retired instruction")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/v7sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/v7sim' instead.")
	}
}
