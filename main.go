package main

import "github.com/KaramelBytes/segloom/cmd"

func main() {
	cmd.Execute()
}
