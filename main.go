package main

import "github.com/apkscope/apkscope/cmd"

func main() {
	cmd.Execute()
}
