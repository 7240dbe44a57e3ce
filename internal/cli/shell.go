package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"flightbook/internal/domain"
	"flightbook/internal/export"
	"flightbook/internal/models"

	"github.com/rs/zerolog"
)

// Store is the booking store plus the log needed for exports.
type Store interface {
	domain.BookingStore
	Transactions() []models.BookingRecord
}

// Backuper takes an on-demand copy of the data files.
type Backuper interface {
	PerformBackup() (string, error)
}

const helpText = `Commands:
  flights [query]              search flights by ID, departure or arrival
  schedule                     list every flight
  passengers [query]           search passengers by ID, name or contact
  book <flight> <passenger>    book a seat
  cancel <flight> <passenger>  cancel a booking
  export [path]                write an .xlsx workbook
  backup                       copy the data files now
  help                         show this help
  quit                         exit`

// Shell is a line-oriented front end to the booking store.
type Shell struct {
	store     Store
	backup    Backuper
	exportDir string
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewShell(store Store, backup Backuper, exportDir string, logger *zerolog.Logger) *Shell {
	return &Shell{
		store:     store,
		backup:    backup,
		exportDir: exportDir,
		logger:    logger,
		now:       time.Now,
	}
}

// Run reads commands from in until quit, EOF or ctx is done.
func (s *Shell) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, `Flight booking. Type "help" for commands.`)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := s.Execute(ctx, scanner.Text(), out); quit {
			return nil
		}
	}
}

// Execute runs one command line and reports whether the shell should exit.
func (s *Shell) Execute(ctx context.Context, line string, out io.Writer) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "flights", "search":
		flights := s.store.SearchFlights(queryArg(line))
		if len(flights) == 0 {
			fmt.Fprintln(out, "No flights found matching the query.")
			return false
		}
		printFlights(out, flights)
	case "schedule":
		flights := s.store.ViewSchedule()
		if len(flights) == 0 {
			fmt.Fprintln(out, "No flights available in the schedule.")
			return false
		}
		printFlights(out, flights)
	case "passengers":
		passengers := s.store.SearchPassengers(queryArg(line))
		if len(passengers) == 0 {
			fmt.Fprintln(out, "No passengers found matching the query.")
			return false
		}
		for _, p := range passengers {
			fmt.Fprintln(out, FormatPassenger(p))
		}
	case "book":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: book <flight> <passenger>")
			return false
		}
		fmt.Fprintln(out, s.store.BookFlight(ctx, args[0], args[1]))
	case "cancel":
		if len(args) != 2 {
			fmt.Fprintln(out, "usage: cancel <flight> <passenger>")
			return false
		}
		fmt.Fprintln(out, s.store.CancelBooking(ctx, args[0], args[1]))
	case "export":
		s.export(out, strings.Join(args, " "))
	case "backup":
		s.runBackup(out)
	case "help", "?":
		fmt.Fprintln(out, helpText)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(out, "unknown command %q, type \"help\"\n", cmd)
	}
	return false
}

// queryArg returns the line after the command word and one separator,
// inner and trailing whitespace kept.
func queryArg(line string) string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	i := strings.IndexFunc(line, unicode.IsSpace)
	if i < 0 {
		return ""
	}
	_, size := utf8.DecodeRuneInString(line[i:])
	return line[i+size:]
}

func (s *Shell) export(out io.Writer, arg string) {
	path := export.ResolvePath(arg, s.exportDir, s.now())
	err := export.WriteWorkbook(path, s.store.ViewSchedule(), s.store.SearchPassengers(""), s.store.Transactions())
	if err != nil {
		s.logger.Error().Err(err).Str("path", path).Msg("export failed")
		fmt.Fprintf(out, "Export failed: %v\n", err)
		return
	}
	s.logger.Info().Str("file_path", path).Msg("Excel file created")
	fmt.Fprintf(out, "Exported to %s\n", path)
}

func (s *Shell) runBackup(out io.Writer) {
	if s.backup == nil {
		fmt.Fprintln(out, "Backups are disabled.")
		return
	}
	dir, err := s.backup.PerformBackup()
	if err != nil {
		fmt.Fprintf(out, "Backup failed: %v\n", err)
		return
	}
	fmt.Fprintf(out, "Backup written to %s\n", dir)
}

func printFlights(out io.Writer, flights []models.Flight) {
	for _, f := range flights {
		fmt.Fprintln(out, FormatFlight(f))
	}
}

func FormatFlight(f models.Flight) string {
	return fmt.Sprintf("Flight ID: %s, Departure: %s, Arrival: %s, Date: %s, Time: %s, Seats Available: %d",
		f.ID, f.Departure, f.Arrival, f.Date, f.Time, f.SeatsAvailable)
}

func FormatPassenger(p models.Passenger) string {
	return fmt.Sprintf("Passenger ID: %s, Name: %s, Contact: %s, Booked Flights: %s",
		p.ID, p.Name, p.ContactDetails, strings.Join(p.BookedFlights, ","))
}
