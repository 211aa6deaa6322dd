package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanghh/klms/internal/client"
	"github.com/khanghh/klms/model"
	"github.com/khanghh/klms/params"
	"github.com/urfave/cli/v2"
)

var (
	serverURLFlag = &cli.StringFlag{
		Name:    "server",
		Usage:   "API base URL",
		EnvVars: []string{"KLMS_SERVER"},
		Value:   "http://localhost:4000",
	}
	sessionFileFlag = &cli.StringFlag{
		Name:    "session-file",
		Usage:   "Where the session envelope is kept",
		EnvVars: []string{"KLMS_SESSION_FILE"},
	}
	revalidateFlag = &cli.BoolFlag{
		Name:  "revalidate",
		Usage: "Confirm the session with the server",
	}
)

var sessionCommand = &cli.Command{
	Name:  "session",
	Usage: "Sign in to a running server and manage the local session",
	Flags: []cli.Flag{serverURLFlag, sessionFileFlag},
	Subcommands: []*cli.Command{
		{
			Name:   "login",
			Usage:  "Sign in and store the session envelope",
			Flags:  []cli.Flag{empIDFlag, passwordFlag},
			Action: sessionLogin,
		},
		{
			Name:   "logout",
			Usage:  "End the stored session",
			Action: sessionLogout,
		},
		{
			Name:   "status",
			Usage:  "Show the stored session",
			Flags:  []cli.Flag{revalidateFlag},
			Action: sessionStatus,
		},
	},
}

func sessionFilePath(ctx *cli.Context) (string, error) {
	if path := ctx.String(sessionFileFlag.Name); path != "" {
		return path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, params.ServiceName, "session.json"), nil
}

func newSessionCache(ctx *cli.Context) (*client.Client, *client.SessionCache, error) {
	path, err := sessionFilePath(ctx)
	if err != nil {
		return nil, nil, err
	}
	apiClient := client.NewClient(ctx.String(serverURLFlag.Name))
	cache, err := client.NewSessionCache(apiClient, client.NewFileEnvelopeStore(path),
		client.WithOnLogout(func(reason model.LogoutReason) {
			fmt.Printf("Session ended (%s), please log in again\n", reason)
		}),
	)
	if err != nil {
		return nil, nil, err
	}
	return apiClient, cache, nil
}

func sessionLogin(ctx *cli.Context) error {
	apiClient, cache, err := newSessionCache(ctx)
	if err != nil {
		return err
	}
	defer cache.Close()
	env, err := apiClient.Login(ctx.Context, ctx.String("emp-id"), ctx.String("password"))
	if err != nil {
		return err
	}
	if err := cache.Establish(env); err != nil {
		return err
	}
	fmt.Printf("Logged in as %s, session %s expires at %s\n", env.Employee.EmpID, env.SessionID, env.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func sessionLogout(ctx *cli.Context) error {
	_, cache, err := newSessionCache(ctx)
	if err != nil {
		return err
	}
	defer cache.Close()
	if _, ok := cache.Current(); !ok {
		fmt.Println("Not logged in")
		return nil
	}
	return cache.Logout(ctx.Context, model.LogoutManual)
}

func sessionStatus(ctx *cli.Context) error {
	_, cache, err := newSessionCache(ctx)
	if err != nil {
		return err
	}
	defer cache.Close()
	if ctx.Bool(revalidateFlag.Name) {
		if _, err := cache.Revalidate(ctx.Context); err != nil {
			return err
		}
	}
	env, ok := cache.Current()
	if !ok {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("Employee:      %s\n", env.Employee.EmpID)
	fmt.Printf("Session:       %s\n", env.SessionID)
	fmt.Printf("Expires at:    %s\n", env.ExpiresAt.Local().Format(time.RFC1123))
	fmt.Printf("Last activity: %s\n", env.LastActivityAt.Local().Format(time.RFC1123))
	fmt.Printf("Idle deadline: %s\n", env.Deadline().Local().Format(time.RFC1123))
	return nil
}
