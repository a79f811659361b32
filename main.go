/*
Planning solves small gridworld MDPs by value iteration or policy iteration. It prints
the resulting values and greedy policy to the console, or serves a single page that
follows the values and policy in realtime as training proceeds. Both algorithms are
exact dynamic programming over a known model; nothing is learned from samples.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// rootCommand parses the global flags and dispatches to solve, serve or questions.
	rootCommand := GetRootCommand()
	if err := rootCommand.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
