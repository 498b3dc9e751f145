package main

import "github.com/libretoken/pgpcard/cmd"

func main() {
	cmd.Execute()
}
