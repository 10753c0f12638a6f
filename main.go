package main

import (
	cmd "github.com/rohmanhakim/ghibli-proxy/internal/cli"
)

func main() {
	cmd.Execute()
}
