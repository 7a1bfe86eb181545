package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerbridge/internal/accounts"
	"github.com/cleared-dev/ledgerbridge/internal/export"
	"github.com/cleared-dev/ledgerbridge/internal/id"
	"github.com/cleared-dev/ledgerbridge/internal/importer"
	"github.com/cleared-dev/ledgerbridge/internal/journal"
	"github.com/cleared-dev/ledgerbridge/internal/mapping"
	"github.com/cleared-dev/ledgerbridge/internal/model"
	"github.com/cleared-dev/ledgerbridge/internal/oracle"
	"github.com/cleared-dev/ledgerbridge/internal/runlog"
	"github.com/cleared-dev/ledgerbridge/internal/session"
	"github.com/cleared-dev/ledgerbridge/internal/sheet"
	"github.com/cleared-dev/ledgerbridge/internal/store"
)

type convertOptions struct {
	typeName   string
	sheetName  string
	out        string
	format     string
	reconcile  bool
	addLedgers bool
	automap    bool
	save       bool
	all        bool
}

func newConvertCommand() *cobra.Command {
	var opts convertOptions

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a spreadsheet or document into a ledger import file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			vt, err := model.ParseVoucherType(opts.typeName)
			if err != nil {
				return err
			}
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}

			registry := importer.DefaultRegistry()
			var files []importer.FileInfo
			switch {
			case opts.all && len(args) > 0:
				return errors.New("pass a file or --all, not both")
			case opts.all:
				if files, err = registry.Scan(p.root); err != nil {
					return err
				}
			case len(args) == 1:
				files = []importer.FileInfo{{Name: filepath.Base(args[0]), Path: args[0], Kind: registry.Kind(args[0])}}
			default:
				return errors.New("pass a file to convert, or --all to convert everything in import/")
			}

			if len(files) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to convert in import/")
				return nil
			}
			if opts.all && opts.out != "" && len(files) > 1 {
				return errors.New("--out needs a single input file")
			}

			c := &converter{cmd: cmd, p: p, vt: vt, opts: opts}
			for _, f := range files {
				if err := c.run(cmd.Context(), f); err != nil {
					return fmt.Errorf("%s: %w", f.Name, err)
				}
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.typeName, "type", "", "voucher type: sales, purchase, journal or bank (required)")
	f.StringVar(&opts.sheetName, "sheet", "", "sheet name (default: first sheet)")
	f.StringVar(&opts.out, "out", "", "output file (default: <export dir>/ledger-import-<type>-<time>.<format>)")
	f.StringVar(&opts.format, "format", "", "output format: xlsx or csv (default: --out extension, then config)")
	f.BoolVar(&opts.reconcile, "reconcile", false, "match party names against the chart of accounts first")
	f.BoolVar(&opts.addLedgers, "add-ledgers", false, "add ledgers suggested by reconciliation to the chart")
	f.BoolVar(&opts.automap, "automap", false, "ask the oracle for the column mapping before converting")
	f.BoolVar(&opts.save, "save", false, "persist the vouchers to the configured store")
	f.BoolVar(&opts.all, "all", false, "convert every supported file in import/ and move it to import/processed/")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

// converter runs one conversion per source file.
type converter struct {
	cmd  *cobra.Command
	p    *project
	vt   model.VoucherType
	opts convertOptions
	gen  oracle.Generator
}

func (c *converter) generator(ctx context.Context) (oracle.Generator, error) {
	if c.gen != nil {
		return c.gen, nil
	}
	gen, err := c.p.generator(ctx)
	if err != nil {
		return nil, err
	}
	c.gen = gen
	return gen, nil
}

func (c *converter) rel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if r, err := filepath.Rel(c.p.root, abs); err == nil && !strings.HasPrefix(r, "..") {
		return r
	}
	return path
}

func (c *converter) run(ctx context.Context, file importer.FileInfo) error {
	entry := runlog.Entry{
		Timestamp:   time.Now(),
		RunID:       id.NewRunID(),
		VoucherType: string(c.vt),
		Source:      c.rel(file.Path),
		Status:      runlog.StatusFailed,
	}
	log := c.p.log.With().Str("run_id", entry.RunID).Str("source", file.Name).Logger()

	runErr := c.convert(ctx, log, file, &entry)
	if err := runlog.Append(c.p.root, []runlog.Entry{entry}); err != nil {
		log.Error().Err(err).Msg("writing conversion log")
	}
	if runErr != nil {
		return runErr
	}

	if c.opts.all {
		if err := importer.MarkProcessed(c.p.root, file.Name); err != nil {
			return err
		}
	}
	hash, err := c.p.commit(ctx, fmt.Sprintf("convert: %s %s (%d vouchers)", c.vt, file.Name, entry.Vouchers))
	if err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	if hash != "" {
		log.Debug().Str("commit", hash).Msg("committed")
	}
	return nil
}

func (c *converter) load(ctx context.Context, file importer.FileInfo) (*sheet.Table, error) {
	switch file.Kind {
	case importer.KindSheet:
		table, _, err := loadTable(file.Path, c.opts.sheetName)
		return table, err
	case importer.KindDocument:
		data, err := os.ReadFile(file.Path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", file.Path, err)
		}
		gen, err := c.generator(ctx)
		if err != nil {
			return nil, err
		}
		return oracle.NewExtractor(gen).ExtractRows(ctx, oracle.Document{
			Name:     file.Name,
			MIMEType: importer.MIMEType(file.Path),
			Data:     data,
		}, c.vt)
	}
	return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(file.Path))
}

func (c *converter) convert(ctx context.Context, log zerolog.Logger, file importer.FileInfo, entry *runlog.Entry) error {
	out := c.cmd.OutOrStdout()

	table, err := c.load(ctx, file)
	if err != nil {
		return err
	}

	set, err := mapping.LoadSet(c.p.root)
	if err != nil {
		return err
	}
	cfg, err := set.For(c.vt)
	if err != nil {
		return err
	}
	if c.opts.automap || file.Kind == importer.KindDocument {
		gen, err := c.generator(ctx)
		if err != nil {
			return err
		}
		if cfg, err = oracle.NewSuggester(gen).Suggest(ctx, table.Headers, cfg); err != nil {
			return err
		}
	}

	snap := session.Snapshot{Source: entry.Source, Headers: table.Headers, Rows: table.Rows, Config: cfg}
	chart, chartErr := accounts.Load(c.p.root)
	var reconciler session.Reconciler
	if c.opts.reconcile {
		if chartErr != nil {
			return fmt.Errorf("reconciling needs a chart of accounts: %w", chartErr)
		}
		gen, err := c.generator(ctx)
		if err != nil {
			return err
		}
		reconciler = c.p.batcher(gen)
		snap.Chart = chart.All()
	}

	outcome, _ := session.New(entry.RunID, reconciler, log).Run(ctx, snap)
	if outcome.Err != nil {
		return outcome.Err
	}
	if len(outcome.Missing) > 0 {
		cols := make([]string, len(outcome.Missing))
		for i, m := range outcome.Missing {
			cols[i] = string(m)
		}
		log.Warn().Strs("columns", cols).Msg("mapped columns not in the sheet are ignored")
	}
	if outcome.ReconcileErr != nil {
		fmt.Fprintf(c.cmd.ErrOrStderr(), "warning: reconciliation failed, converting without corrections: %v\n", outcome.ReconcileErr)
	}
	if err := c.reportMapping(outcome.Mapping, chart); err != nil {
		return err
	}

	res := outcome.Result
	for _, r := range res.Rejections {
		log.Debug().Int("row", r.Row+2).Str("reason", string(r.Reason)).Msg("row skipped")
	}

	entry.Vouchers = res.Stats.TotalVouchers
	entry.Entries = res.Stats.TotalEntries
	entry.Rejected = len(res.Rejections)
	entry.TotalAmount = res.Stats.TotalAmount

	if len(res.Entries) == 0 {
		entry.Status = runlog.StatusInvalid
		return fmt.Errorf("no vouchers produced (%d rows skipped); check the column mapping in %s", len(res.Rejections), mapping.FileName)
	}

	vouchers := journal.GroupVouchers(res.Entries)
	problems := journal.Validate(vouchers, nil)
	for _, v := range problems {
		fmt.Fprintf(c.cmd.ErrOrStderr(), "warning: %v\n", v)
	}

	outPath, err := c.write(res.Entries)
	if err != nil {
		return err
	}
	entry.Output = c.rel(outPath)
	entry.Status = runlog.StatusExported
	if len(problems) > 0 {
		entry.Status = runlog.StatusInvalid
	}

	if c.opts.save {
		if err := c.persist(ctx, log, vouchers); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Converted %s: %d vouchers, %d entries, total %s, %d rows skipped\n",
		file.Name, res.Stats.TotalVouchers, res.Stats.TotalEntries, res.Stats.TotalAmount.StringFixed(2), len(res.Rejections))
	fmt.Fprintf(out, "Wrote %s\n", entry.Output)
	return nil
}

func (c *converter) reportMapping(m model.NameMapping, chart *accounts.Service) error {
	out := c.cmd.OutOrStdout()
	if len(m.Corrections) > 0 {
		fmt.Fprintf(out, "Corrected %d party names\n", len(m.Corrections))
	}
	if len(m.NewLedgers) == 0 {
		return nil
	}
	if !c.opts.addLedgers {
		fmt.Fprintf(out, "Suggested new ledgers (use --add-ledgers to add them to the chart):\n")
		for _, l := range m.NewLedgers {
			fmt.Fprintf(out, "  %s (%s)\n", l.Name, l.Group)
		}
		return nil
	}
	added := chart.Merge(m.NewLedgers)
	if err := chart.Save(c.p.root); err != nil {
		return err
	}
	fmt.Fprintf(out, "Added %d ledgers to %s\n", added, accounts.File)
	return nil
}

// format picks the export format: --format, then the extension of --out,
// then the project default.
func (c *converter) format() (export.Format, error) {
	if c.opts.format != "" {
		return export.ParseFormat(c.opts.format)
	}
	if ext := filepath.Ext(c.opts.out); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return export.ParseFormat(c.p.cfg.Export.Format)
}

func (c *converter) write(entries []model.LedgerEntry) (string, error) {
	format, err := c.format()
	if err != nil {
		return "", err
	}

	path := c.opts.out
	if path == "" {
		path = filepath.Join(c.p.path(c.p.cfg.Export.Dir), export.FileName(c.vt, format, time.Now()))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating export dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case export.FormatCSV:
		err = export.WriteCSV(f, entries)
	default:
		err = export.WriteXLSX(f, entries)
	}
	if err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, f.Close()
}

func (c *converter) persist(ctx context.Context, log zerolog.Logger, vouchers []model.Voucher) error {
	backend, err := c.p.store()
	if err != nil {
		return err
	}
	defer backend.Close()

	var saved int
	for _, v := range vouchers {
		err := backend.Save(ctx, v)
		var rejected *store.RejectedError
		switch {
		case errors.As(err, &rejected):
			fmt.Fprintf(c.cmd.ErrOrStderr(), "warning: voucher %s not saved: %s\n", v.Number(), rejected.Message)
			continue
		case err != nil:
			return fmt.Errorf("saving voucher %s: %w", v.Number(), err)
		}
		saved++
	}
	log.Info().Int("saved", saved).Int("vouchers", len(vouchers)).Msg("vouchers persisted")
	fmt.Fprintf(c.cmd.OutOrStdout(), "Saved %d of %d vouchers\n", saved, len(vouchers))
	return nil
}
