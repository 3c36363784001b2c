package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Freeeeeet/medicony/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) listFiltersCmd() *cobra.Command {
	var q service.FilterQuery
	kinds := make([]string, 0, len(service.FilterKinds))
	for _, k := range service.FilterKinds {
		kinds = append(kinds, string(k))
	}

	cmd := &cobra.Command{
		Use:       "list-filters <" + strings.Join(kinds, "|") + ">",
		Short:     "List available filter values",
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := c.app
			kind, err := service.ParseFilterKind(args[0])
			if err != nil {
				return err
			}
			q.Kind = kind
			if needsScope(kind) && (q.Region == 0 || q.Specialty == 0) {
				return fmt.Errorf("list-filters %s requires --region and --specialty", kind)
			}

			a.Logger.Info("Listing available filters", zap.String("type", string(kind)))
			filters, err := service.NewWatchService(nil, a.Accounts, a.Logger).ListFilters(cmd.Context(), q)
			if err != nil {
				return err
			}
			a.Logger.Info("[ID] - [Value]")
			for _, f := range filters {
				a.Logger.Info(strconv.FormatInt(f.ID, 10) + " - " + f.Label)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&q.Region, "region", "r", 0, "Region ID, required for clinics, doctors and examinations")
	cmd.Flags().Int64VarP(&q.Specialty, "specialty", "s", 0, "Specialty ID, required for clinics, doctors and examinations")
	cmd.Flags().StringVarP(&q.Account, "account", "A", "", "Medicover account alias")
	return cmd
}

func needsScope(kind service.FilterKind) bool {
	switch kind {
	case service.FilterClinics, service.FilterDoctors, service.FilterExaminations:
		return true
	default:
		return false
	}
}

func (c *cli) listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-accounts",
		Short: "List configured Medicover account aliases",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a := c.app
			def := a.Config.DefaultAccount()
			a.Logger.Info("Configured accounts")
			for _, alias := range a.Config.Aliases() {
				line := alias
				if alias == def {
					line += " (default)"
				}
				a.Logger.Info(line)
			}
			return nil
		},
	}
}
