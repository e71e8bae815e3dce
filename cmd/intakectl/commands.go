package main

import (
	"errors"
	"fmt"
	"time"

	"form95/cmd/migration/initialize"
	. "form95/internal/models"
	"form95/internal/repositories"
	"form95/internal/utils"

	"github.com/spf13/cobra"
)

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Create or extend the claims table and apply user migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := c.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := initialize.InitializeTables(cmd.Context(), db, c.config, c.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}

func (c *cli) resetAdminCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "reset-admin",
		Short: "Create the admin account or replace its password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" {
				username = c.config.AdminUsername
			}
			if password == "" {
				password = envOr("ADMIN_PASSWORD", "")
			}
			if password == "" {
				return errors.New("a password is required (--password or ADMIN_PASSWORD)")
			}

			application, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			user, err := application.UserController.ResetAdmin(cmd.Context(), username, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %q reset\n", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "admin username (default ADMIN_USERNAME)")
	cmd.Flags().StringVar(&password, "password", "", "new password (default ADMIN_PASSWORD)")
	return cmd
}

func (c *cli) regenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate <claim-id>",
		Short: "Refill the document for a stored claim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			claim, err := application.AdminController.Regenerate(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			path := application.Paths.PreviewPath(claim.DocumentFilename)
			if claim.Status == ClaimStatusFinal {
				path = application.Paths.FinalPath(claim.DocumentFilename)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	var (
		out    string
		status string
		name   string
		state  string
		since  string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write claims as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := repositories.ClaimFilter{
				Status: ClaimStatus(status),
				Name:   name,
				State:  state,
			}
			if since != "" {
				from, err := time.Parse("2006-01-02", since)
				if err != nil {
					return fmt.Errorf("--since: %w", err)
				}
				filter.CreatedFrom = &from
			}

			application, err := c.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			headers, rows, err := application.AdminController.Export(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if out == "" || out == "-" {
				return utils.WriteCSV(cmd.Context(), cmd.OutOrStdout(), headers, rows)
			}
			if err := utils.WriteCSVFile(cmd.Context(), out, headers, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d claims written to %s\n", len(rows), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	cmd.Flags().StringVar(&status, "status", "", "draft or final")
	cmd.Flags().StringVar(&name, "name", "", "claimant name contains")
	cmd.Flags().StringVar(&state, "state", "", "claimant state")
	cmd.Flags().StringVar(&since, "since", "", "created on or after YYYY-MM-DD")
	return cmd
}
