// Copyright © 2024 The Declavatar authors

package main

import "github.com/declavatar/declavatar/cmd"

func main() {
	cmd.Execute()
}
