package main

import "github.com/arloliu/sumpdec/cmd/sumpdec/cmd"

func main() {
	cmd.Execute()
}
