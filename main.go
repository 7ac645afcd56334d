package main

import "github.com/theirongolddev/obligo/cmd"

func main() {
	cmd.Execute()
}
