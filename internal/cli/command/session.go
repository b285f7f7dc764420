// Package command provides CLI command definitions for tablesync-cli.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tablesync-go/internal/cli/connection"
	"github.com/yndnr/tablesync-go/internal/cli/output"
)

const requestTimeout = 30 * time.Second

// SessionCommand returns the session subcommand group.
func SessionCommand() *cli.Command {
	return &cli.Command{
		Name:    "session",
		Aliases: []string{"sess"},
		Usage:   "Manage table sessions",
		Subcommands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List registered sessions",
				Action: sessionList,
			},
			{
				Name:      "get",
				Usage:     "Get session details",
				ArgsUsage: "SESSION_ID",
				Action:    sessionGet,
			},
			{
				Name:  "create",
				Usage: "Register a new session",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "id",
						Usage: "Session ID (generated when omitted)",
					},
				},
				Action: sessionCreate,
			},
			{
				Name:      "remove",
				Usage:     "Remove a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionRemove,
			},
			{
				Name:      "snapshot",
				Usage:     "Show the current snapshot of a session",
				ArgsUsage: "SESSION_ID",
				Action:    sessionSnapshot,
			},
			{
				Name:      "sync",
				Usage:     "Plan the update from a client version to the current state",
				ArgsUsage: "SESSION_ID",
				Flags: []cli.Flag{
					&cli.Uint64Flag{
						Name:     "client-version",
						Aliases:  []string{"v"},
						Usage:    "Client snapshot version",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "max-delta-size",
						Usage: "Delta size threshold in bytes (0 uses the server default)",
					},
				},
				Action: sessionSync,
			},
			{
				Name:      "recover",
				Usage:     "Reconcile a stale client against the current state",
				ArgsUsage: "SESSION_ID",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:     "client-version",
						Aliases:  []string{"v"},
						Usage:    "Client snapshot version",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "client-hash",
						Usage: "Client content hash",
					},
				},
				Action: sessionRecover,
			},
		},
	}
}

func sessionList(c *cli.Context) error {
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/sessions")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Sessions []map[string]any `json:"sessions"`
		Count    int              `json:"count"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	return formatOutput(c, result.Sessions)
}

func sessionGet(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("SESSION_ID argument is required")
	}
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/sessions/"+sessionID)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	return formatOutput(c, result)
}

func sessionCreate(c *cli.Context) error {
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	body := map[string]any{}
	if id := c.String("id"); id != "" {
		body["session_id"] = id
	}

	resp, err := client.Post(ctx, "/sessions", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	return formatOutput(c, result)
}

func sessionRemove(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("SESSION_ID argument is required")
	}
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Delete(ctx, "/sessions/"+sessionID)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("session %s removed\n", sessionID)
	return nil
}

func sessionSnapshot(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("SESSION_ID argument is required")
	}
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/sessions/"+sessionID+"/snapshot")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	// Snapshots are nested documents; table output is unreadable for them.
	formatter := &output.JSONFormatter{}
	return formatter.Format(os.Stdout, result)
}

func sessionSync(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("SESSION_ID argument is required")
	}
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/sessions/"+sessionID+"/sync", map[string]any{
		"client_version": c.Uint64("client-version"),
		"max_delta_size": c.Int("max-delta-size"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	formatter := &output.JSONFormatter{}
	return formatter.Format(os.Stdout, result)
}

func sessionRecover(c *cli.Context) error {
	sessionID := c.Args().First()
	if sessionID == "" {
		return fmt.Errorf("SESSION_ID argument is required")
	}
	client := Client(c)

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/sessions/"+sessionID+"/recover", map[string]any{
		"client_version": c.Int64("client-version"),
		"client_hash":    c.String("client-hash"),
	})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result map[string]any
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	formatter := &output.JSONFormatter{}
	return formatter.Format(os.Stdout, result)
}

// formatOutput renders data according to the global output flags.
func formatOutput(c *cli.Context, data any) error {
	flags := ParseGlobalFlags(c)
	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	return formatter.Format(os.Stdout, data)
}
