//go:build !cgo

package main

import (
	"fmt"
	"os"
)

func handleListen(args []string) {
	fmt.Println("❌ listen needs a cgo build for microphone access")
	os.Exit(1)
}
