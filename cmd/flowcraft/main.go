// Command flowcraft edits HTTP request pipelines from the shell or, via the
// mcp subcommand, from an agent.
package main

func main() {
	Execute()
}
