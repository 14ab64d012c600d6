// main.go - Application entry point
package main

import (
	"mvtengine/cmd"
)

func main() {
	cmd.Execute()
}
