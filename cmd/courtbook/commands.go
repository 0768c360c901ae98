package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kirinyoku/courtbook/internal/domain"
	"github.com/kirinyoku/courtbook/internal/service/session"
	"github.com/kirinyoku/courtbook/internal/workflow"
)

func campusesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "campuses",
		Short: "List campuses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			campuses, err := state.svcs.Catalog.Campuses(state.ctx)
			if err != nil {
				return fmt.Errorf("failed to list campuses: %w", err)
			}

			tw := newTable()
			fmt.Fprintln(tw, "ID\tCAMPUS")
			for _, c := range campuses {
				fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
			}
			return tw.Flush()
		},
	}
}

func sportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sports <campus_id>",
		Short: "List the sports offered at a campus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			campusID, err := parseID("campus_id", args[0])
			if err != nil {
				return err
			}

			sports, err := state.svcs.Catalog.Sports(state.ctx, campusID)
			if err != nil {
				return fmt.Errorf("failed to list sports: %w", err)
			}

			tw := newTable()
			fmt.Fprintln(tw, "ID\tSPORT")
			for _, s := range sports {
				fmt.Fprintf(tw, "%d\t%s\n", s.ID, s.Name)
			}
			return tw.Flush()
		},
	}
}

func slotsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slots <campus_id> <sport> <date>",
		Short: "Show the court slots of a sport on a date",
		Long:  `Show the court slots of a sport on a date. sport is a sport id or name; date is YYYY-MM-DD.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := state.svcs.Sessions.Create(1)
			if err != nil {
				return err
			}
			defer func() { _ = state.svcs.Sessions.Close(s.ID) }()

			snap, err := browse(s, args[0], args[1], args[2])
			if err != nil {
				return err
			}

			printSnapshot(snap)
			return nil
		},
	}
}

func bookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "book <owner_id> <campus_id> <sport> <date> <schedule_id>",
		Short: "Book a court slot",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := parseID("owner_id", args[0])
			if err != nil {
				return err
			}
			scheduleID, err := parseID("schedule_id", args[4])
			if err != nil {
				return err
			}

			s, err := state.svcs.Sessions.Create(ownerID)
			if err != nil {
				return err
			}
			defer func() { _ = state.svcs.Sessions.Close(s.ID) }()

			if _, err := browse(s, args[1], args[2], args[3]); err != nil {
				return err
			}

			if err := s.Booking.SelectSlot(scheduleID); err != nil {
				return err
			}
			if err := s.Booking.Review(); err != nil {
				return fmt.Errorf("slot %d is not available on %s", scheduleID, args[3])
			}

			done, err := s.Booking.Confirm()
			if err != nil {
				return err
			}
			<-done

			snap := s.Booking.Snapshot()
			if snap.State != workflow.StateBooked {
				return fmt.Errorf("booking not confirmed (%s): %s", snap.State, noticeText(snap.Notice))
			}

			b := snap.LastBooking
			fmt.Printf("\n✓ %s\n\n", noticeText(snap.Notice))
			fmt.Printf("Campus: %s\n", b.CampusName)
			fmt.Printf("Sport:  %s\n", b.SportName)
			fmt.Printf("Court:  %s\n", b.CourtName)
			fmt.Printf("When:   %s %s-%s\n\n", b.Date, b.Start, b.End)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "history <owner_id>",
		Short: "List upcoming reservations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := parseID("owner_id", args[0])
			if err != nil {
				return err
			}

			s, err := state.svcs.Sessions.Create(ownerID)
			if err != nil {
				return err
			}
			defer func() { _ = state.svcs.Sessions.Close(s.ID) }()

			if _, err := s.History.Load(state.ctx, ownerID); err != nil {
				return fmt.Errorf("failed to load reservations: %w", err)
			}

			printReservations(s.History.Search(query))
			return nil
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Filter by campus, sport or day name")
	return cmd
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <owner_id> <reservation_id>",
		Short: "Cancel a reservation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ownerID, err := parseID("owner_id", args[0])
			if err != nil {
				return err
			}
			reservationID, err := parseID("reservation_id", args[1])
			if err != nil {
				return err
			}

			s, err := state.svcs.Sessions.Create(ownerID)
			if err != nil {
				return err
			}
			defer func() { _ = state.svcs.Sessions.Close(s.ID) }()

			if _, err := s.History.Load(state.ctx, ownerID); err != nil {
				return fmt.Errorf("failed to load reservations: %w", err)
			}

			res, err := s.History.Cancel(state.ctx, reservationID)
			if err != nil {
				return fmt.Errorf("failed to cancel reservation %d: %w", reservationID, err)
			}

			if res.AlreadyCancelled {
				fmt.Printf("Reservation %d was already cancelled.\n", reservationID)
			} else {
				fmt.Printf("✓ Reservation %d cancelled.\n", reservationID)
			}
			printReservations(s.History.Snapshot().Items)
			return nil
		},
	}
}

// browse drives s to DateChosen for the given campus, sport and date.
func browse(s *session.Session, campusArg, sportArg, dateArg string) (workflow.BookingSnapshot, error) {
	campusID, err := parseID("campus_id", campusArg)
	if err != nil {
		return workflow.BookingSnapshot{}, err
	}
	date, err := domain.ParseDate(dateArg)
	if err != nil {
		return workflow.BookingSnapshot{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}

	done, err := s.Booking.SelectCampus(campusID)
	if err != nil {
		return workflow.BookingSnapshot{}, err
	}
	<-done

	if id, perr := strconv.ParseInt(sportArg, 10, 64); perr == nil {
		err = s.Booking.SelectSport(id)
	} else {
		err = s.Booking.SelectSportNamed(sportArg)
	}
	if err != nil {
		return workflow.BookingSnapshot{}, err
	}
	if s.Booking.State() != workflow.StateSportChosen {
		return workflow.BookingSnapshot{}, fmt.Errorf("sport %q is not offered at campus %d", sportArg, campusID)
	}

	done, err = s.Booking.SelectDate(date)
	if err != nil {
		return workflow.BookingSnapshot{}, err
	}
	<-done

	snap := s.Booking.Snapshot()
	if snap.State != workflow.StateDateChosen {
		return snap, fmt.Errorf("%s is not a bookable date", date)
	}
	if snap.Notice != nil && snap.Notice.Level == workflow.NoticeError {
		return snap, fmt.Errorf("%s", snap.Notice.Message)
	}

	return snap, nil
}

func printSnapshot(snap workflow.BookingSnapshot) {
	fmt.Printf("\n%s · %s · %s\n\n", snap.CampusName, snap.Selection.SportName, snap.Selection.Date)

	tw := newTable()
	fmt.Fprintln(tw, "SCHEDULE\tSTART\tEND\tCOURT\tSTATUS")
	for _, s := range snap.Slots {
		status := "free"
		if !s.IsAvailable() {
			status = "taken"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", s.ScheduleID, s.StartTime, s.EndTime, s.CourtName, status)
	}
	_ = tw.Flush()

	if snap.Notice != nil {
		fmt.Printf("\n%s\n", snap.Notice.Message)
	}
	fmt.Println()
}

func printReservations(items []domain.Reservation) {
	if len(items) == 0 {
		fmt.Println("No upcoming reservations.")
		return
	}

	tw := newTable()
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tCAMPUS\tSPORT\tCOURT\tACTIVE")
	for _, r := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s-%s\t%s\t%s\t%s\t%t\n",
			r.ID, r.RegisterDate, r.Start, r.Finish, r.Headquarter, r.Sport, r.Court, r.Active)
	}
	_ = tw.Flush()
}

func noticeText(n *workflow.Notice) string {
	if n == nil {
		return ""
	}
	return n.Message
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
}

func parseID(name, s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive number", name)
	}
	return v, nil
}
