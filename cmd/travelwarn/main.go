// Command travelwarn scrapes the gov.il travel warnings into a JSON snapshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/morikuni/failure/v2"
	"github.com/travelwarn/travelwarn/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Run(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintln(os.Stdout, errorLine(err))
		os.Exit(1)
	}
}

// errorLine renders err for users: the outermost message, the innermost
// message below it, and the first error in the chain that carries no failure
// fields. Call stacks and context stay in the logs.
func errorLine(err error) string {
	top := failure.MessageOf(err).String()

	var inner string
	var cause error
	for e := err; e != nil; e = errors.Unwrap(e) {
		if _, ok := e.(failure.Failure); !ok {
			cause = e
			break
		}
		if m := failure.MessageOf(e).String(); m != "" {
			inner = m
		}
	}

	parts := make([]string, 0, 3)
	if top == "" {
		top = "Error"
	}
	parts = append(parts, top)
	if inner != "" && inner != top {
		parts = append(parts, inner)
	}
	if cause != nil {
		parts = append(parts, cause.Error())
	}
	return strings.Join(parts, ": ")
}
