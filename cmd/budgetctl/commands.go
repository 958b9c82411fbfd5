package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"anggaran/internal/middleware"
	"anggaran/internal/models"
	"anggaran/internal/services"
)

func categoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Inspect budget categories",
	}

	var all bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			categories, err := svc.Categories.ListCategories(!all)
			if err != nil {
				return err
			}
			if len(categories) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCODE\tNAME\tKIND\tACTIVE")
			for _, c := range categories {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", c.ID, c.Code, c.Name, c.Kind, c.IsActive)
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVar(&all, "all", false, "include deactivated categories")

	cmd.AddCommand(list)
	return cmd
}

func periodsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "periods",
		Short: "Inspect and transition budget periods",
	}
	cmd.AddCommand(listPeriodsCmd(a))
	cmd.AddCommand(activatePeriodCmd(a))
	cmd.AddCommand(closePeriodCmd(a))
	return cmd
}

func listPeriodsCmd(a *app) *cobra.Command {
	var (
		status string
		year   int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List periods",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter services.PeriodFilter
			if status != "" {
				s := models.PeriodStatus(strings.ToUpper(status))
				switch s {
				case models.PeriodStatusDraft, models.PeriodStatusActive, models.PeriodStatusClosed:
				default:
					return fmt.Errorf("unknown status %q", status)
				}
				filter.Status = &s
			}
			if cmd.Flags().Changed("year") {
				filter.Year = &year
			}

			svc, err := a.services()
			if err != nil {
				return err
			}
			periods, err := svc.Periods.ListPeriods(filter)
			if err != nil {
				return err
			}
			if len(periods) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No periods found.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tYEAR\tSTART\tEND\tSTATUS")
			for _, p := range periods {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", p.ID, p.Name, p.Year,
					p.StartDate.Format(time.DateOnly), p.EndDate.Format(time.DateOnly), p.Status)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "filter by status (DRAFT, ACTIVE, CLOSED)")
	cmd.Flags().IntVar(&year, "year", 0, "filter by fiscal year")
	return cmd
}

func activatePeriodCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "activate <periodId>",
		Short: "Move a DRAFT period to ACTIVE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			period, err := svc.Periods.Activate(args[0])
			if err != nil {
				return err
			}
			otherActive, err := svc.Periods.HasOtherActivePeriod(period.ID)
			if err != nil {
				return err
			}
			svc.Audit.Log(cliActor, "ACTIVATE_PERIOD", "period", period.ID, "",
				map[string]interface{}{"otherActive": otherActive})

			fmt.Fprintf(cmd.OutOrStdout(), "Period %s is now %s\n", period.Name, period.Status)
			if otherActive {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning: another period is also ACTIVE")
			}
			return nil
		},
	}
}

func closePeriodCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "close <periodId>",
		Short: "Move an ACTIVE period to CLOSED",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			period, err := svc.Periods.Close(args[0])
			if err != nil {
				return err
			}
			svc.Audit.Log(cliActor, "CLOSE_PERIOD", "period", period.ID, "", nil)
			fmt.Fprintf(cmd.OutOrStdout(), "Period %s is now %s\n", period.Name, period.Status)
			return nil
		},
	}
}

func populateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "populate <periodId>",
		Short: "Snapshot the active item tree into a period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			created, err := svc.Periods.AutoPopulate(args[0])
			if err != nil {
				return err
			}
			svc.Audit.Log(cliActor, "POPULATE_PERIOD", "period", args[0], "",
				map[string]interface{}{"created": created})
			fmt.Fprintf(cmd.OutOrStdout(), "Created %d budget entries\n", created)
			return nil
		},
	}
}

func treeCmd(a *app) *cobra.Command {
	var categoryID string
	cmd := &cobra.Command{
		Use:   "tree <periodId>",
		Short: "Print a period's budget tree with target and actual totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			var category *string
			if categoryID != "" {
				category = &categoryID
			}
			nodes, err := svc.Aggregation.RollupTree(args[0], category)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Period has no budget entries.")
				return nil
			}
			return printTree(cmd.OutOrStdout(), nodes)
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "limit the tree to one category")
	return cmd
}

// printTree writes nodes in the order given, indenting names by level.
func printTree(out io.Writer, nodes []services.EntryRollup) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tNAME\tTARGET\tACTUAL")
	for _, n := range nodes {
		indent := strings.Repeat("  ", max(n.Level-1, 0))
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", indent, n.Code, n.Name,
			n.TargetTotal.StringFixed(2), n.ActualTotal.StringFixed(2))
	}
	return w.Flush()
}

func tokenCmd(a *app) *cobra.Command {
	var (
		subject string
		role    string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.AccessTokenTTL
			}
			token, err := middleware.GenerateAccessToken(subject, models.Role(strings.ToLower(role)), cfg.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject, recorded as the actor")
	cmd.Flags().StringVar(&role, "role", string(models.RoleViewer), "role claim (admin or viewer)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
