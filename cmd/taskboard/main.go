package main

import (
	"fmt"
	"os"

	"github.com/common-nighthawk/go-figure"

	"github.com/jrsteele09/taskboard-client/commands"
)

func main() {
	displayAppname("taskboard")
	if err := commands.Root().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
