package main

import "github.com/visionbi/strand/cmd"

func main() {
	cmd.Execute()
}
