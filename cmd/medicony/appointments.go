package main

import (
	"fmt"
	"time"

	"github.com/Freeeeeet/medicony/internal/medicover"
	"github.com/Freeeeeet/medicony/internal/model"
	"github.com/Freeeeeet/medicony/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// searchFlags общие флаги поиска слотов
type searchFlags struct {
	region      int64
	city        string
	account     string
	clinic      int64
	doctor      int64
	examination bool
	notify      bool
	title       string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().Int64VarP(&f.region, "region", "r", 0, "Region ID")
	cmd.Flags().StringVarP(&f.city, "city", "m", "any", "City name")
	cmd.Flags().StringVarP(&f.account, "account", "A", "", "Medicover account alias")
	cmd.Flags().Int64VarP(&f.clinic, "clinic", "c", 0, "Clinic ID")
	cmd.Flags().Int64VarP(&f.doctor, "doctor", "d", 0, "Doctor ID")
	cmd.Flags().BoolVarP(&f.examination, "examination", "E", false, "Search examinations instead of visits")
	cmd.Flags().BoolVarP(&f.notify, "notification", "n", false, "Send a notification with the result")
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Notification title")
	_ = cmd.MarkFlagRequired("region")
}

func (f *searchFlags) params(start time.Time) medicover.SearchParams {
	p := medicover.SearchParams{
		Region:    f.region,
		City:      f.city,
		Clinic:    f.clinic,
		Doctor:    f.doctor,
		StartDate: start,
		Type:      model.WatchTypeStandard,
	}
	if f.examination {
		p.Type = model.WatchTypeExamination
	}
	return p
}

func (c *cli) findAppointmentCmd() *cobra.Command {
	var (
		flags       searchFlags
		specialties []int64
		gp          bool
		date        string
	)
	cmd := &cobra.Command{
		Use:   "find-appointment",
		Short: "Find appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			start := model.Today()
			if date != "" {
				d, err := model.ParseDate(date)
				if err != nil {
					return fmt.Errorf("parse --date: %w", err)
				}
				start = d
			}
			if gp {
				specialties = model.GeneralPractitionerSpecialties
			}

			a.Logger.Info("Finding appointments",
				zap.Int64("region", flags.region),
				zap.String("city", flags.city),
				zap.Int64s("specialties", specialties),
				zap.Int64("clinic", flags.clinic),
				zap.Int64("doctor", flags.doctor),
				zap.String("date", start.Format(model.DateLayout)),
				zap.Bool("examination", flags.examination),
			)
			found, err := a.Appointments.Find(cmd.Context(), flags.account, flags.params(start), specialties)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				a.Logger.Info("No appointments found")
				return nil
			}
			logEntities(a.Logger, model.AppointmentStrings(found))

			if flags.notify {
				title := flags.title
				if title == "" {
					title = found[0].Specialty.Label
				}
				a.Notifier.Notify(cmd.Context(), title, model.AppointmentStrings(found))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64SliceVarP(&specialties, "specialty", "s", nil, "Specialty ID or comma separated IDs")
	cmd.Flags().BoolVarP(&gp, "general-practitioner", "G", false, "General practitioner specialties")
	cmd.Flags().StringVarP(&date, "date", "f", "", "Start date YYYY-MM-DD, default today")
	cmd.MarkFlagsMutuallyExclusive("specialty", "general-practitioner")
	cmd.MarkFlagsOneRequired("specialty", "general-practitioner")
	return cmd
}

func (c *cli) bookAppointmentCmd() *cobra.Command {
	var (
		flags     searchFlags
		specialty int64
		date      string
	)
	cmd := &cobra.Command{
		Use:   "book-appointment",
		Short: "Book an appointment at an exact date and time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			dateTime, err := parseDateTime(date)
			if err != nil {
				return err
			}
			p := flags.params(time.Time{})
			p.Specialty = specialty

			a.Logger.Info("Booking appointment",
				zap.Int64("region", flags.region),
				zap.Int64("specialty", specialty),
				zap.Int64("clinic", flags.clinic),
				zap.Int64("doctor", flags.doctor),
				zap.Time("date", dateTime),
			)
			booked, err := a.Appointments.Book(cmd.Context(), service.BookRequest{
				Account:        flags.account,
				Search:         p,
				DateTime:       dateTime,
				ExactTimeMatch: true,
				ExactDateMatch: true,
			})
			if err != nil {
				a.Logger.Error("Error while booking appointment", zap.Error(err))
				return err
			}
			if booked == nil {
				a.Logger.Error("Error while booking appointment")
				return nil
			}
			logEntities(a.Logger, []string{booked.String()})

			if flags.notify {
				title := flags.title
				if title == "" {
					title = "Booked appointment"
				}
				a.Notifier.Notify(cmd.Context(), title, []string{booked.String()})
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Int64VarP(&specialty, "specialty", "s", 0, "Specialty ID")
	cmd.Flags().StringVarP(&date, "date", "D", "", "Appointment date YYYY-MM-DD HH:MM[:SS]")
	for _, name := range []string{"specialty", "clinic", "doctor", "date"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func (c *cli) listAppointmentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-appointments",
		Short: "List booked appointments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			a.Logger.Info("Listing all booked appointments")
			booked, err := a.Appointments.ListBooked(cmd.Context(), true)
			if err != nil {
				return err
			}
			if len(booked) == 0 {
				a.Logger.Info("No booked appointments found in the database")
				return nil
			}
			logEntities(a.Logger, model.AppointmentStrings(booked))
			return nil
		},
	}
}

func (c *cli) cancelAppointmentCmd() *cobra.Command {
	var id int64
	cmd := &cobra.Command{
		Use:   "cancel-appointment",
		Short: "Cancel a booked appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := c.app
			a.Logger.Info("Canceling booked appointment", zap.Int64("appointment_id", id))
			ok, err := a.Appointments.Cancel(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("cancel appointment %d: rejected by provider", id)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&id, "id", "i", 0, "Appointment ID")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

var dateTimeLayouts = []string{"2006-01-02 15:04:05", "2006-01-02 15:04"}

// parseDateTime принимает "YYYY-MM-DD HH:MM[:SS]" и формат провайдера
func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := model.ParseProviderTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --date %q: expected YYYY-MM-DD HH:MM[:SS]", s)
	}
	return t, nil
}
