// afyactl is the operations CLI: closed-user-group batch exchange with the
// carrier and reference data seeding. It talks to the database directly, not
// to the running service.
package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	_ "github.com/jackc/pgx/v5/stdlib"

	"afya/internal/cug"
	"afya/internal/platform/logger"
	refpostgres "afya/internal/reference/store/postgres"
	refservice "afya/internal/reference/service"
	"afya/internal/storage"
	workerpostgres "afya/internal/worker/store/postgres"
	"afya/pkg/platform/tx"
)

type CLI struct {
	DSN string `help:"PostgreSQL connection string." env:"AFYA_DATABASE_URL" required:""`

	CugApply        CugApplyCmd        `cmd:"" name:"cug-apply" help:"Apply a carrier confirmation CSV to the registry."`
	CugExport       CugExportCmd       `cmd:"" name:"cug-export" help:"Export the next closed-user-group request CSV."`
	SeedSpecialties SeedSpecialtiesCmd `cmd:"" name:"seed-specialties" help:"Load the cadre/specialty forest from a TSV file."`
}

type CugApplyCmd struct {
	File       string `arg:"" help:"Confirmation CSV, one phone per row."`
	SkipHeader bool   `help:"Skip the first row."`
	Column     int    `default:"0" help:"Zero-based index of the phone column."`
}

func (c *CugApplyCmd) Run(cli *CLI) error {
	ctx := context.Background()
	db, processor, _, err := connect(ctx, cli.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("open confirmation file: %w", err)
	}
	defer f.Close()

	rows, err := readPhoneRows(f, c.Column, c.SkipHeader)
	if err != nil {
		return err
	}

	res, err := processor.Process(ctx, rows)
	if err != nil {
		return err
	}
	fmt.Printf("updated %d, already members %d, skipped %d of %d rows\n",
		res.Updated, res.AlreadyMember, res.Skipped, len(rows))
	return nil
}

type CugExportCmd struct {
	Output string `short:"o" help:"Output CSV path. Defaults to stdout."`
	// Save stamps each candidate's request time. Without it the export is a
	// dry run and can be repeated freely.
	Save bool `help:"Record the request timestamp on exported workers."`
}

func (c *CugExportCmd) Run(cli *CLI) error {
	ctx := context.Background()
	db, processor, _, err := connect(ctx, cli.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	var rows []cug.RequestRow
	if c.Save {
		rows, err = processor.ExportRequests(ctx)
	} else {
		rows, err = processor.Candidates(ctx)
	}
	if err != nil {
		return err
	}

	out := os.Stdout
	if c.Output != "" {
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	w := csv.NewWriter(out)
	if err := w.Write([]string{"surname", "name", "phone"}); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write([]string{row.Surname, row.Name, row.Phone}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

type SeedSpecialtiesCmd struct {
	File string `arg:"" help:"Tab-separated seed file with cadre/specialty/super specialty columns."`
}

func (c *SeedSpecialtiesCmd) Run(cli *CLI) error {
	ctx := context.Background()
	db, _, reference, err := connect(ctx, cli.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(c.File)
	if err != nil {
		return fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	created, err := reference.SeedSpecialties(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("created %d specialties\n", created)
	return nil
}

func connect(ctx context.Context, dsn string) (*sql.DB, *cug.Processor, *refservice.Service, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("ping database: %w", err)
	}
	if err := storage.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, nil, err
	}

	log := logger.New()
	runner := tx.NewRunner(db)
	processor := cug.New(workerpostgres.New(db), runner, cug.WithLogger(log))

	reference := refservice.New(
		refpostgres.NewRegionStore(db),
		refpostgres.NewRegionTypeStore(db),
		refpostgres.NewSpecialtyStore(db),
		refpostgres.NewFacilityStore(db),
		refpostgres.NewFacilityTypeStore(db),
		refpostgres.NewRegistrationStore(db),
		refservice.WithLogger(log),
	)
	return db, processor, reference, nil
}

func readPhoneRows(r io.Reader, column int, skipHeader bool) ([]cug.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	var rows []cug.Row
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read confirmation file: %w", err)
		}
		if first && skipHeader {
			first = false
			continue
		}
		first = false
		if column >= len(record) {
			continue
		}
		rows = append(rows, cug.Row{Phone: record[column]})
	}
	return rows, nil
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("afyactl"),
		kong.Description("Operations tooling for the health worker registry."),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli))
}
