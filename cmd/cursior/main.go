package main

import "github.com/chiru781/cursior/internal/cli"

func main() {
	cli.Execute()
}
