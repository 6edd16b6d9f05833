// Command formfill fills the Business Meals form from the command line, lists
// the fields of a template, or serves the MCP tools over stdio.
package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mgulati3/ASU-BMF-FILLER/internal/adapters/acroform"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/config"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/domain"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/formfill"
	"github.com/mgulati3/ASU-BMF-FILLER/internal/mcp"
)

const usage = `Usage: formfill <command> [flags]

Commands:
  fill     fill a template from a JSON data file or interactive prompts
  fields   list the fields of a template and the keys they resolve to
  mcp      serve the MCP tools over stdio
`

var errUsage = errors.New("usage")

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errUsage
	}
	switch args[0] {
	case "fill":
		return runFill(args[1:], stdin, stdout, stderr)
	case "fields":
		return runFields(args[1:], stdout, stderr)
	case "mcp":
		return runMCP(args[1:], stderr)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return errUsage
	}
}

type common struct {
	template string
	patterns string
	verbose  bool
}

func commonFlags(name string, stderr io.Writer) (*pflag.FlagSet, *common) {
	c := &common{}
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&c.template, "template", "t", envOr("BMF_BUILTIN_TEMPLATE", config.DefaultBuiltinTemplate), "PDF form template")
	fs.StringVar(&c.patterns, "patterns", os.Getenv("BMF_PATTERNS"), "YAML file replacing the built-in field pattern table")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "log every fill step to stderr")
	return fs, c
}

func (c *common) filler(stderr io.Writer) (*formfill.Filler, error) {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	opts := []formfill.Option{
		formfill.WithLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))),
	}
	if c.patterns != "" {
		p, err := formfill.LoadPatternsFile(c.patterns)
		if err != nil {
			return nil, err
		}
		opts = append(opts, formfill.WithPatterns(p))
	}
	return formfill.New(acroform.NewOpener(), opts...), nil
}

func runFill(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs, c := commonFlags("fill", stderr)
	dataPath := fs.StringP("data", "d", "", "JSON file with the expense form (- for stdin)")
	out := fs.StringP("out", "o", "", "output PDF (default <location>_<date>.pdf)")
	interactive := fs.BoolP("interactive", "i", false, "prompt for every value")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var data *domain.ExpenseForm
	var err error
	switch {
	case *interactive:
		data, err = prompt(stdin, stdout)
	case *dataPath != "":
		data, err = readData(*dataPath, stdin)
	default:
		fmt.Fprintln(stderr, "fill needs --data or --interactive")
		return errUsage
	}
	if err != nil {
		return err
	}

	filler, err := c.filler(stderr)
	if err != nil {
		return err
	}
	tmpl, err := os.ReadFile(c.template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	res := filler.Fill(tmpl, data)
	if !res.Success {
		return errors.New(formfill.UserMessage(res.Err))
	}

	if *out == "" {
		*out = data.DownloadName()
	}
	if err := os.WriteFile(*out, res.Output, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(stdout, "PDF successfully filled and saved to %s (%d of %d fields)\n", *out, res.FilledCount, len(res.FieldNames))
	return nil
}

func readData(path string, stdin io.Reader) (*domain.ExpenseForm, error) {
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read data: %w", err)
	}
	var data domain.ExpenseForm
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("invalid form data: %w", err)
	}
	return &data, nil
}

func runFields(args []string, stdout, stderr io.Writer) error {
	fs, c := commonFlags("fields", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() > 0 {
		c.template = fs.Arg(0)
	}
	filler, err := c.filler(stderr)
	if err != nil {
		return err
	}
	tmpl, err := os.ReadFile(c.template)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	in, err := filler.Inspect(tmpl)
	if err != nil {
		return errors.New(formfill.UserMessage(err))
	}
	for _, e := range in.Catalog.Entries() {
		keys := in.Keys(e.Name)
		if len(keys) == 0 {
			fmt.Fprintln(stdout, e.Name)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", e.Name, strings.Join(keys, ","))
	}
	return nil
}

func runMCP(args []string, stderr io.Writer) error {
	fs, c := commonFlags("mcp", stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	filler, err := c.filler(stderr)
	if err != nil {
		return err
	}
	srv, err := mcp.NewServer(filler, nil, c.template)
	if err != nil {
		return err
	}
	return srv.ServeStdio()
}

// prompt asks for each value in form order. Blank answers leave the value
// empty, except payment method which defaults to the card.
func prompt(stdin io.Reader, stdout io.Writer) (*domain.ExpenseForm, error) {
	sc := bufio.NewScanner(stdin)
	ask := func(q string) string {
		fmt.Fprint(stdout, q)
		if !sc.Scan() {
			return ""
		}
		return strings.TrimSpace(sc.Text())
	}

	fmt.Fprintln(stdout, "Business Meals and Related Expenses Form Filler")
	fmt.Fprintln(stdout, "==============================================")
	f := &domain.ExpenseForm{
		ExpenseType:     ask("Type of Expense [" + domain.DefaultExpenseType + "]: "),
		Location:        ask("Location of Event: "),
		EventDate:       ask("Event Date: "),
		BusinessPurpose: ask("Business (Public) Purpose: "),
		CostCenter:      ask("Cost Center plus Program: "),
		PONumber:        ask("PO # (if applicable): "),
		TotalAmount:     ask("Total Amount: "),
	}

	fmt.Fprintf(stdout, "\nASU Faculty, Staff or Students (up to %d, blank name to stop):\n", domain.MaxAttendees)
	for i := 0; i < domain.MaxAttendees; i++ {
		name := ask(fmt.Sprintf("Attendee %d name: ", i+1))
		if name == "" {
			break
		}
		f.ASUAttendees = append(f.ASUAttendees, domain.Attendee{Name: name, Department: ask("  Department: "), Title: ask("  Title: ")})
	}
	fmt.Fprintf(stdout, "\nOther Attendees (up to %d, blank name to stop):\n", domain.MaxAttendees)
	for i := 0; i < domain.MaxAttendees; i++ {
		name := ask(fmt.Sprintf("Attendee %d name: ", i+1))
		if name == "" {
			break
		}
		f.OtherAttendees = append(f.OtherAttendees, domain.OtherAttendee{Name: name, Affiliation: ask("  Affiliation: "), Title: ask("  Title: ")})
	}

	pm := ask("\nPayment Method (1 for ASU Purchasing Card, 2 for Direct supplier invoice) [1]: ")
	if pm == "" {
		pm = "1"
	}
	method, err := domain.ParsePaymentMethod(pm)
	if err != nil {
		return nil, err
	}
	f.PaymentMethod = method
	f.SupplierName = ask("Name of Supplier: ")
	f.RequesterName = ask("Requester's Name: ")
	f.RequesterPhone = ask("Phone No.: ")
	f.RequesterDate = ask("Requester Date: ")
	f.TextSignature = ask("Signature (typed): ")
	f.DirectInquiriesTo = ask("Direct Inquiries To: ")
	f.DirectInquiriesDate = ask("Inquiries Date: ")
	f.CostCenterManager = ask("Cost Center Manager Name: ")
	f.CostCenterManagerDate = ask("Cost Center Manager Date: ")
	f.DeanDirector = ask("Dean or Director Name (If Required): ")
	f.DeanDirectorDate = ask("Dean or Director Date: ")
	f.Other = ask("Other Name (If Required): ")
	f.OtherDate = ask("Other Date: ")
	return f, sc.Err()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
