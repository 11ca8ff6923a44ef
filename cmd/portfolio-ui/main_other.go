//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "portfolio-ui runs in the browser; build it with GOOS=js GOARCH=wasm (see make wasm)")
	os.Exit(2)
}
