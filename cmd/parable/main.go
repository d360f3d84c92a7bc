// Command parable generates original parables in the style of four religious
// traditions, grounded in passages retrieved from their source texts.
package main

import "github.com/parable-gpt/parable/cmd"

func main() {
	cmd.Execute()
}
