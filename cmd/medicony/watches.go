package main

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func (c *cli) addWatchCmd() *cobra.Command {
	var (
		region      int64
		city        string
		account     string
		specialties []int64
		gp          bool
		clinic      int64
		doctor      int64
		startDate   string
		endDate     string
		timeRange   string
		autoBook    bool
		examination bool
		exclude     string
	)
	cmd := &cobra.Command{
		Use:   "add-watch",
		Short: "Add a watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			if gp {
				specialties = model.GeneralPractitionerSpecialties
			}

			w := &model.Watch{
				Region:    model.NewIDValue(region),
				City:      city,
				TimeRange: model.DefaultTimeRange(),
				AutoBook:  autoBook,
				Type:      model.WatchTypeStandard,
				Account:   account,
			}
			for _, id := range specialties {
				w.Specialties = append(w.Specialties, model.NewIDValue(id))
			}
			if clinic != 0 {
				v := model.NewIDValue(clinic)
				w.Clinic = &v
			}
			if doctor != 0 {
				v := model.NewIDValue(doctor)
				w.Doctor = &v
			}
			if examination {
				w.Type = model.WatchTypeExamination
			}

			var err error
			if w.StartDate, err = optionalDate("start-date", startDate); err != nil {
				return err
			}
			if w.EndDate, err = optionalDate("end-date", endDate); err != nil {
				return err
			}
			if timeRange != "" {
				if w.TimeRange, err = model.ParseTimeRange(timeRange); err != nil {
					return err
				}
			}
			if w.Exclusions, err = model.ParseExclusions(exclude); err != nil {
				return err
			}

			id, err := a.Watches.Add(cmd.Context(), w)
			if err != nil {
				return err
			}
			w.ID = id
			a.Logger.Info("Adding watch:")
			logEntities(a.Logger, []string{w.String()})
			return nil
		},
	}
	cmd.Flags().Int64VarP(&region, "region", "r", 0, "Region ID")
	cmd.Flags().StringVarP(&city, "city", "m", "any", "City name")
	cmd.Flags().StringVarP(&account, "account", "A", "", "Medicover account alias")
	cmd.Flags().Int64SliceVarP(&specialties, "specialty", "s", nil, "Specialty ID or comma separated IDs")
	cmd.Flags().BoolVarP(&gp, "general-practitioner", "G", false, "General practitioner specialties")
	cmd.Flags().Int64VarP(&clinic, "clinic", "c", 0, "Clinic ID")
	cmd.Flags().Int64VarP(&doctor, "doctor", "d", 0, "Doctor ID")
	cmd.Flags().StringVarP(&startDate, "start-date", "S", "", "Start date YYYY-MM-DD, default today")
	cmd.Flags().StringVarP(&endDate, "end-date", "e", "", "End date YYYY-MM-DD, default unbounded")
	cmd.Flags().StringVarP(&timeRange, "time-range", "T", "", "Time range HH:MM[:SS][-HH:MM[:SS]], without end the range is endless")
	cmd.Flags().BoolVarP(&autoBook, "auto-book", "B", false, "Book automatically when an appointment is found")
	cmd.Flags().BoolVarP(&examination, "examination", "E", false, "Watch examinations instead of visits")
	cmd.Flags().StringVarP(&exclude, "exclude", "X", "", `Excluded IDs, e.g. "doctor:123,345;clinic:777,888"`)
	_ = cmd.MarkFlagRequired("region")
	cmd.MarkFlagsMutuallyExclusive("specialty", "general-practitioner")
	cmd.MarkFlagsOneRequired("specialty", "general-practitioner")
	return cmd
}

func (c *cli) editWatchCmd() *cobra.Command {
	var (
		id        int64
		city      string
		account   string
		clinic    int64
		autoBook  bool
		startDate string
		endDate   string
		timeRange string
		exclude   string
	)
	cmd := &cobra.Command{
		Use:   "edit-watch",
		Short: "Edit an existing watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			flags := cmd.Flags()
			var u model.WatchUpdate

			if flags.Changed("city") {
				u.City = &city
			}
			if flags.Changed("account") {
				u.Account = &account
			}
			if flags.Changed("clinic") {
				u.Clinic = &clinic
			}
			if flags.Changed("auto-book") {
				u.AutoBook = &autoBook
			}
			if flags.Changed("start-date") {
				d, err := model.ParseDate(startDate)
				if err != nil {
					return fmt.Errorf("parse --start-date: %w", err)
				}
				u.StartDate = &d
			}
			if flags.Changed("end-date") {
				d, err := model.ParseDate(endDate)
				if err != nil {
					return fmt.Errorf("parse --end-date: %w", err)
				}
				u.EndDate = &d
			}
			if flags.Changed("time-range") {
				tr, err := model.ParseTimeRange(timeRange)
				if err != nil {
					return err
				}
				u.TimeRange = &tr
			}
			if flags.Changed("exclude") {
				ex, err := model.ParseExclusions(exclude)
				if err != nil {
					return err
				}
				u.Exclusions = &ex
			}

			a.Logger.Info("Editing watch", zap.Int64("watch_id", id))
			if u.IsEmpty() {
				a.Logger.Info("Nothing to update")
				return nil
			}
			ok, err := a.Watches.Update(cmd.Context(), id, u)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no watch with ID %d was found", id)
			}

			if w, err := a.Watches.Get(cmd.Context(), id); err == nil {
				a.Logger.Info("Updated watch with following data:")
				logEntities(a.Logger, []string{w.String()})
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&id, "id", "i", 0, "Watch ID")
	cmd.Flags().StringVarP(&city, "city", "m", "", "City name")
	cmd.Flags().StringVarP(&account, "account", "A", "", "Medicover account alias")
	cmd.Flags().Int64VarP(&clinic, "clinic", "c", 0, "Clinic ID")
	cmd.Flags().BoolVarP(&autoBook, "auto-book", "B", false, "Book automatically, --auto-book=false turns it off")
	cmd.Flags().StringVarP(&startDate, "start-date", "S", "", "Start date YYYY-MM-DD")
	cmd.Flags().StringVarP(&endDate, "end-date", "e", "", "End date YYYY-MM-DD")
	cmd.Flags().StringVarP(&timeRange, "time-range", "T", "", "Time range HH:MM[:SS][-HH:MM[:SS]]")
	cmd.Flags().StringVarP(&exclude, "exclude", "X", "", `Excluded IDs, e.g. "doctor:123,345;clinic:777,888"`)
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) removeWatchCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "remove-watch",
		Short: "Remove a watch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			a.Logger.Info("Removing watch", zap.Int64("watch_id", id))
			ok, err := a.Watches.Remove(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no watch with ID %d was found", id)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&id, "id", "i", 0, "Watch ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func (c *cli) listWatchesCmd() *cobra.Command {
	var (
		account string
		notify  bool
	)
	cmd := &cobra.Command{
		Use:   "list-watches",
		Short: "List watches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			a.Logger.Info("Listing all watches")
			watches, err := a.Watches.List(cmd.Context(), account, true)
			if err != nil {
				return err
			}
			if len(watches) == 0 {
				a.Logger.Info("No watches found")
				return nil
			}
			logEntities(a.Logger, model.WatchStrings(watches))
			if notify {
				a.Notifier.Notify(cmd.Context(), "Current Watches", model.WatchStrings(watches))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&account, "account", "A", "", "Only watches of this account alias")
	cmd.Flags().BoolVarP(&notify, "notification", "n", false, "Send the list as a notification")
	return cmd
}

func optionalDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	d, err := model.ParseDate(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --%s: %w", flag, err)
	}
	return d, nil
}
