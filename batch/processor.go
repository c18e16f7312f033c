package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/TrashScientist/contract-features/domain"
	"github.com/TrashScientist/contract-features/service"
)

var outputHeader = []string{"id", "tot_claim_cnt_l180d", "disb_bank_loan_wo_tbc", "day_sinlastloan"}

// FailureRecorder is told about every row replaced by the sentinel triple.
type FailureRecorder interface {
	BatchRowFailed(ctx context.Context)
}

type Processor struct {
	service       *service.FeatureService
	workers       int
	progressEvery int
	failures      FailureRecorder
	logger        *slog.Logger
}

type Option func(*Processor)

func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithProgressEvery logs progress after every n rows; 0 disables it.
func WithProgressEvery(n int) Option {
	return func(p *Processor) { p.progressEvery = n }
}

func WithFailureRecorder(r FailureRecorder) Option {
	return func(p *Processor) { p.failures = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) { p.logger = logger }
}

func NewProcessor(svc *service.FeatureService, opts ...Option) *Processor {
	p := &Processor{
		service: svc,
		workers: 1,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Summary describes one batch run.
type Summary struct {
	RunID    string
	Rows     int
	Failed   int
	Duration time.Duration
}

// ValidateFiles checks the input exists and is a .csv file and that the
// output directory exists.
func ValidateFiles(input, output string) error {
	if _, err := os.Stat(input); err != nil {
		return fmt.Errorf("input file not found: %s", input)
	}
	if !strings.HasSuffix(input, ".csv") {
		return fmt.Errorf("input file must be CSV format: %s", input)
	}
	if dir := filepath.Dir(output); dir != "" {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return fmt.Errorf("output directory does not exist: %s", dir)
		}
	}
	return nil
}

// ProcessFile reads applications from input and writes one feature row per
// application to output.
func (p *Processor) ProcessFile(ctx context.Context, input, output string) (Summary, error) {
	if err := ValidateFiles(input, output); err != nil {
		return Summary{}, err
	}

	in, err := os.Open(input)
	if err != nil {
		return Summary{}, fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return Summary{}, fmt.Errorf("create output: %w", err)
	}

	p.logger.Info("reading data", "input", input)
	summary, err := p.Process(ctx, in, out)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close output: %w", closeErr)
	}
	if err != nil {
		return summary, err
	}

	p.logger.Info("results saved", "output", output, "run_id", summary.RunID)
	return summary, nil
}

// Process applies the feature service to every CSV row of r and writes the
// results to w in input order.
func (p *Processor) Process(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: uuid.NewString()}

	records, cols, err := readRecords(r)
	if err != nil {
		return summary, err
	}
	summary.Rows = len(records)
	p.logger.Info("processing rows", "rows", len(records), "workers", p.workers, "run_id", summary.RunID)

	rows := make([]outputRow, len(records))
	var done atomic.Int64
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, rec := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows[i] = p.processRow(gctx, i+2, rec, cols)
			if rows[i].failed {
				failed.Add(1)
			}
			if n := done.Add(1); p.progressEvery > 0 && n%int64(p.progressEvery) == 0 {
				p.logger.Info("progress", "processed", n, "total", len(records), "run_id", summary.RunID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	if err := writeRows(w, rows); err != nil {
		return summary, err
	}

	summary.Failed = int(failed.Load())
	summary.Duration = time.Since(start)
	p.logger.Info("successfully processed rows",
		"rows", summary.Rows, "failed", summary.Failed, "duration", summary.Duration, "run_id", summary.RunID)
	return summary, nil
}

type columns struct {
	id, applicationDate, contracts int
}

func readRecords(r io.Reader) ([][]string, columns, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, columns{}, errors.New("input has no header row")
		}
		return nil, columns{}, fmt.Errorf("read header: %w", err)
	}

	cols := columns{id: -1, applicationDate: -1, contracts: -1}
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "id":
			cols.id = i
		case "application_date":
			cols.applicationDate = i
		case "contracts":
			cols.contracts = i
		}
	}
	if cols.id < 0 || cols.applicationDate < 0 {
		return nil, columns{}, errors.New("input must have id and application_date columns")
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, columns{}, fmt.Errorf("read rows: %w", err)
	}
	return records, cols, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return rec[i]
}

func (c columns) request(rec []string) (domain.ApplicationRequest, error) {
	rawID := strings.TrimSpace(cell(rec, c.id))
	id, err := strconv.ParseFloat(rawID, 64)
	if err != nil {
		return domain.ApplicationRequest{}, fmt.Errorf("invalid id %q", rawID)
	}

	appDate := cell(rec, c.applicationDate)
	if strings.TrimSpace(appDate) == "" {
		return domain.ApplicationRequest{}, domain.ErrMissingApplicationDate
	}

	return domain.ApplicationRequest{
		ID:              id,
		ApplicationDate: appDate,
		Contracts:       domain.ContractsText(cell(rec, c.contracts)),
	}, nil
}

type outputRow struct {
	id     string
	result domain.FeatureResult
	failed bool
}

func sentinelRow(rawID string) outputRow {
	return outputRow{id: rawID, result: domain.SentinelResult(0), failed: true}
}

// processRow never fails: any problem with the row yields the sentinel
// triple under the row's raw id.
func (p *Processor) processRow(ctx context.Context, line int, rec []string, cols columns) (row outputRow) {
	rawID := strings.TrimSpace(cell(rec, cols.id))

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("error processing row", "line", line, "id", rawID, "panic", r)
			p.rowFailed(ctx)
			row = sentinelRow(rawID)
		}
	}()

	req, err := cols.request(rec)
	if err != nil {
		p.logger.Error("error processing row", "line", line, "id", rawID, "error", err)
		p.rowFailed(ctx)
		return sentinelRow(rawID)
	}

	result := p.service.CalculateFeatures(ctx, req)
	return outputRow{id: formatFloat(result.ID), result: result}
}

func (p *Processor) rowFailed(ctx context.Context) {
	if p.failures != nil {
		p.failures.BatchRowFailed(ctx)
	}
}

func writeRows(w io.Writer, rows []outputRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(outputHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.id,
			strconv.Itoa(row.result.TotClaimCntL180d),
			formatFloat(row.result.DisbBankLoanWoTBC),
			strconv.Itoa(row.result.DaySinceLastLoan),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
