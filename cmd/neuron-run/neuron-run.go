package main

import (
	"os"

	"github.com/mlfoundry/neuronrun/cmd/neuron-run/app"
)

func main() {
	app.Main(os.Args[1:])
}
