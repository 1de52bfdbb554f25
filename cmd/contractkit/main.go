// Command contractkit checks, exercises and stubs API contracts written in
// OpenAPI 3.
//
// Usage:
//
//	contractkit compat --old v1.yaml --new v2.yaml
//	contractkit validate --spec api.yaml --schema Pet --data pet.json
//	contractkit generate --spec api.yaml --schema Pet [-n 3] [--seed 42]
//	contractkit tests --spec api.yaml [--generative] [--base-url http://localhost:8080]
//	contractkit stub --spec api.yaml --addr :9000 [--metrics-path /metrics]
//	contractkit schema --spec api.yaml --schema Pet
//
// Exit codes: 0 success, 1 the check failed, 2 usage or input error.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
