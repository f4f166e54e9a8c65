// Command agent-chat coordinates concurrent coding agents through files in
// the project's .agent-chat/ directory.
package main

import "github.com/agent-chat/agent-chat/internal/cli"

func main() {
	cli.Execute()
}
