package main

import (
	"fmt"
	"time"

	"redaid/internal/client"
	"redaid/pkg/types"

	"github.com/urfave/cli/v2"
)

var requestCommand = &cli.Command{
	Name:  "request",
	Usage: "Work with donation requests through the API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Usage:    "Account to sign in as",
			EnvVars:  []string{"REDAID_EMAIL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "Account password",
			EnvVars:  []string{"REDAID_PASSWORD"},
			Required: true,
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:      "show",
			Usage:     "Show a donation request and what you may do with it",
			ArgsUsage: "<id>",
			Action:    showRequest,
		},
		{
			Name:      "transition",
			Usage:     "Move a donation request to a new status",
			ArgsUsage: "<id> <pending|inprogress|done|canceled>",
			Action:    transitionRequest,
		},
	},
}

func apiClient(c *cli.Context) (*client.Client, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	api, err := client.New(cfg.APIBaseURL, time.Duration(cfg.APITimeoutSec)*time.Second)
	if err != nil {
		return nil, err
	}

	if err := api.Login(c.Context, c.String("email"), c.String("password")); err != nil {
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	return api, nil
}

func showRequest(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.ShowSubcommandHelp(c)
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	view, err := api.DonationRequest(c.Context, c.Args().Get(0))
	if err != nil {
		return describe(err)
	}

	fmt.Printf("%s  %s  %s  %s %s\n", view.ID, view.Status, view.BloodGroup, view.DonationDate, view.DonationTime)
	fmt.Printf("recipient: %s at %s\n", view.RecipientName, view.HospitalName)
	fmt.Printf("allowed transitions: %v\n", view.AllowedTransitions)
	return nil
}

func transitionRequest(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.ShowSubcommandHelp(c)
	}

	to := types.RequestStatus(c.Args().Get(1))
	if !to.Valid() {
		return fmt.Errorf("unknown status %q", to)
	}

	api, err := apiClient(c)
	if err != nil {
		return err
	}

	view, err := api.TransitionStatus(c.Context, c.Args().Get(0), to)
	if err != nil {
		return describe(err)
	}

	fmt.Printf("%s is now %s\n", view.ID, view.Status)
	return nil
}

// describe turns an API failure into a message that says whether the action
// was not allowed, is no longer possible, or should be retried.
func describe(err error) error {
	switch {
	case types.IsAuthorization(err):
		return fmt.Errorf("not allowed: %w", err)
	case types.IsInvalidTransition(err):
		return fmt.Errorf("this request can no longer be updated")
	case types.IsNotFound(err):
		return fmt.Errorf("this request no longer exists")
	case types.IsNetwork(err):
		return fmt.Errorf("the outcome is unknown, check the request and try again: %w", err)
	case types.IsValidation(err):
		return err
	}
	return fmt.Errorf("something went wrong: %w", err)
}
