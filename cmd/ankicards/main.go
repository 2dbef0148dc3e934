package main

import "github.com/ChrisCoy/Automatic-Anki-Cards-From-Video/internal/cli"

func main() {
	cli.Main()
}
