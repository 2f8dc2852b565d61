package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dukex/autoflow/pkg/log"
	"github.com/dukex/autoflow/pkg/models"
	"github.com/urfave/cli/v3"
)

func ChatCommand() *cli.Command {
	return &cli.Command{
		Name:  "chat",
		Usage: "Talk to the orchestrator from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "user",
				Usage: "User ID of the conversation",
				Value: "local",
			},
			&cli.StringFlag{
				Name:  "agent",
				Usage: "Agent ID of the conversation",
				Value: "cli",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), command.String("log-format"))

			logger := log.WithModule("chat")

			app, err := NewApplication(ctx, optionsFrom(command), logger)
			if err != nil {
				return err
			}

			defer func() {
				if err := app.Close(context.WithoutCancel(ctx)); err != nil {
					logger.Error("Failed to shut down cleanly", "error", err)
				}
			}()

			if err := app.Start(ctx); err != nil {
				return err
			}

			return chat(ctx, app, command.String("user"), command.String("agent"), os.Stdin, os.Stdout)
		},
	}
}

// chat reads one message per line until EOF or "/quit". "/clear" drops the
// conversation memory.
func chat(ctx context.Context, app *Application, userID, agentID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
		case "/quit":
			return nil
		case "/clear":
			if err := app.Orchestrator.ClearMemory(ctx, userID, agentID); err != nil {
				return err
			}

			fmt.Fprintln(out, "Memory cleared.")
		default:
			result, err := app.Orchestrator.HandleMessage(ctx, userID, agentID, line)
			if err != nil {
				return err
			}

			printResult(out, result)
		}

		fmt.Fprint(out, "> ")
	}

	return scanner.Err()
}

func printResult(out io.Writer, result *models.OrchestrationResult) {
	fmt.Fprintln(out, result.Reply)

	for _, node := range result.NodeResults {
		fmt.Fprintf(out, "  %s %s", node.NodeID, node.Status)

		if node.Reason != "" {
			fmt.Fprintf(out, ": %s", node.Reason)
		}

		fmt.Fprintln(out)
	}
}
