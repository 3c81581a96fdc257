package main

import "github.com/libriscan/libriscan/cmd/libriscan/cmd"

func main() {
	cmd.Execute()
}
