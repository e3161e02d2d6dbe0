package main

import (
	cmd "github.com/kerbaras/mangamirror/cmd/mangamirror"
)

func main() {
	cmd.Execute()
}
