package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/boardwatch/filings-cli/internal/db"
	"github.com/boardwatch/filings-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

const (
	sqlUpsertFiling = `
		INSERT INTO filings (
			id, source_url, title, title_raw, pdf_path, text_path, doc_type,
			respondent, case_number, case_numbers, filing_year, filing_date,
			status, ocr_failed, page_count, discovered_at, processed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (source_url) DO UPDATE SET
			title = EXCLUDED.title,
			title_raw = EXCLUDED.title_raw,
			pdf_path = EXCLUDED.pdf_path,
			text_path = EXCLUDED.text_path,
			doc_type = EXCLUDED.doc_type,
			respondent = EXCLUDED.respondent,
			case_number = EXCLUDED.case_number,
			case_numbers = EXCLUDED.case_numbers,
			filing_year = EXCLUDED.filing_year,
			filing_date = EXCLUDED.filing_date,
			status = EXCLUDED.status,
			ocr_failed = EXCLUDED.ocr_failed,
			page_count = EXCLUDED.page_count,
			processed_at = EXCLUDED.processed_at`

	sqlGetFiling = `
		SELECT id, source_url, title, title_raw, pdf_path, text_path, doc_type,
		       respondent, case_number, case_numbers, filing_year, filing_date,
		       status, ocr_failed, page_count, discovered_at, processed_at
		FROM filings WHERE source_url = $1`

	sqlSetFilingStatus = `UPDATE filings SET status = $1 WHERE source_url = $2`

	sqlSelectComplaint = `
		SELECT id, case_number, case_prefix, series_index, series_total, source_url,
		       doc_type, respondent, filing_year, filing_date, is_amended,
		       amends_case_number, amendment_summary, text, ocr_failed,
		       extracted, extraction, updated_at
		FROM complaints`

	sqlUpsertComplaint = `
		INSERT INTO complaints (
			id, case_number, case_prefix, series_index, series_total, source_url,
			doc_type, respondent, filing_year, filing_date, is_amended,
			amends_case_number, amendment_summary, text, ocr_failed,
			extracted, extraction, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (case_number) DO UPDATE SET
			case_prefix = EXCLUDED.case_prefix,
			series_index = EXCLUDED.series_index,
			series_total = EXCLUDED.series_total,
			source_url = EXCLUDED.source_url,
			doc_type = EXCLUDED.doc_type,
			respondent = EXCLUDED.respondent,
			filing_year = EXCLUDED.filing_year,
			filing_date = EXCLUDED.filing_date,
			is_amended = EXCLUDED.is_amended,
			amends_case_number = EXCLUDED.amends_case_number,
			amendment_summary = EXCLUDED.amendment_summary,
			text = EXCLUDED.text,
			ocr_failed = EXCLUDED.ocr_failed,
			extracted = EXCLUDED.extracted,
			extraction = EXCLUDED.extraction,
			updated_at = EXCLUDED.updated_at`

	sqlSelectSettlement = `
		SELECT id, source_url, doc_type, respondent, case_numbers, complaint_refs,
		       filing_year, filing_date, resolution_outcome, text, ocr_failed,
		       extracted, extraction, updated_at
		FROM settlements`

	sqlUpsertSettlement = `
		INSERT INTO settlements (
			id, source_url, doc_type, respondent, case_numbers, complaint_refs,
			filing_year, filing_date, resolution_outcome, text, ocr_failed,
			extracted, extraction, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (source_url) DO UPDATE SET
			doc_type = EXCLUDED.doc_type,
			respondent = EXCLUDED.respondent,
			case_numbers = EXCLUDED.case_numbers,
			complaint_refs = EXCLUDED.complaint_refs,
			filing_year = EXCLUDED.filing_year,
			filing_date = EXCLUDED.filing_date,
			resolution_outcome = EXCLUDED.resolution_outcome,
			text = EXCLUDED.text,
			ocr_failed = EXCLUDED.ocr_failed,
			extracted = EXCLUDED.extracted,
			extraction = EXCLUDED.extraction,
			updated_at = EXCLUDED.updated_at`

	sqlUpsertLicenseOnly = `
		INSERT INTO license_only (
			id, source_url, license_number, doc_type, respondent, filing_date,
			text, ocr_failed, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (source_url) DO UPDATE SET
			license_number = EXCLUDED.license_number,
			doc_type = EXCLUDED.doc_type,
			respondent = EXCLUDED.respondent,
			filing_date = EXCLUDED.filing_date,
			text = EXCLUDED.text,
			ocr_failed = EXCLUDED.ocr_failed,
			updated_at = EXCLUDED.updated_at`

	sqlRecordFailure = `
		INSERT INTO failures (id, source_url, case_number, stage, kind, reason, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (source_url, stage) DO UPDATE SET
			case_number = EXCLUDED.case_number,
			kind = EXCLUDED.kind,
			reason = EXCLUDED.reason,
			occurred_at = EXCLUDED.occurred_at`
)

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"upsert_filing":       sqlUpsertFiling,
	"get_filing":          sqlGetFiling,
	"set_filing_status":   sqlSetFilingStatus,
	"upsert_complaint":    sqlUpsertComplaint,
	"upsert_settlement":   sqlUpsertSettlement,
	"upsert_license_only": sqlUpsertLicenseOnly,
	"record_failure":      sqlRecordFailure,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS filings (
	id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_url    TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL,
	title_raw     TEXT,
	pdf_path      TEXT,
	text_path     TEXT,
	doc_type      TEXT NOT NULL DEFAULT '',
	respondent    TEXT,
	case_number   TEXT,
	case_numbers  JSONB NOT NULL DEFAULT '[]',
	filing_year   INTEGER NOT NULL DEFAULT 0,
	filing_date   TIMESTAMPTZ,
	status        TEXT NOT NULL DEFAULT 'discovered',
	ocr_failed    BOOLEAN NOT NULL DEFAULT FALSE,
	page_count    INTEGER NOT NULL DEFAULT 0,
	discovered_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	processed_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS complaints (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	case_number        TEXT NOT NULL UNIQUE,
	case_prefix        TEXT NOT NULL,
	series_index       INTEGER NOT NULL DEFAULT 0,
	series_total       INTEGER NOT NULL DEFAULT 0,
	source_url         TEXT NOT NULL,
	doc_type           TEXT NOT NULL,
	respondent         TEXT,
	filing_year        INTEGER NOT NULL DEFAULT 0,
	filing_date        TIMESTAMPTZ,
	is_amended         BOOLEAN NOT NULL DEFAULT FALSE,
	amends_case_number TEXT,
	amendment_summary  TEXT,
	text               TEXT,
	ocr_failed         BOOLEAN NOT NULL DEFAULT FALSE,
	extracted          JSONB,
	extraction         JSONB,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS settlements (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_url         TEXT NOT NULL UNIQUE,
	doc_type           TEXT NOT NULL,
	respondent         TEXT,
	case_numbers       JSONB NOT NULL DEFAULT '[]',
	complaint_refs     JSONB NOT NULL DEFAULT '[]',
	filing_year        INTEGER NOT NULL DEFAULT 0,
	filing_date        TIMESTAMPTZ,
	resolution_outcome TEXT,
	text               TEXT,
	ocr_failed         BOOLEAN NOT NULL DEFAULT FALSE,
	extracted          JSONB,
	extraction         JSONB,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS license_only (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_url     TEXT NOT NULL UNIQUE,
	license_number TEXT NOT NULL,
	doc_type       TEXT NOT NULL,
	respondent     TEXT,
	filing_date    TIMESTAMPTZ,
	text           TEXT,
	ocr_failed     BOOLEAN NOT NULL DEFAULT FALSE,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS failures (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source_url  TEXT NOT NULL,
	case_number TEXT,
	stage       TEXT NOT NULL,
	kind        TEXT NOT NULL,
	reason      TEXT,
	occurred_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(source_url, stage)
);

CREATE INDEX IF NOT EXISTS idx_filings_status ON filings(status);
CREATE INDEX IF NOT EXISTS idx_filings_year ON filings(filing_year);
CREATE INDEX IF NOT EXISTS idx_complaints_prefix ON complaints(case_prefix);
CREATE INDEX IF NOT EXISTS idx_failures_kind ON failures(kind);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertFiling(ctx context.Context, f *model.Filing) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.DiscoveredAt.IsZero() {
		f.DiscoveredAt = time.Now().UTC()
	}
	caseNumbersJSON, err := json.Marshal(f.CaseNumbers)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal case numbers")
	}

	_, err = s.pool.Exec(ctx, sqlUpsertFiling,
		f.ID, f.SourceURL, f.Title, f.TitleRaw, f.PDFPath, f.TextPath, f.DocType,
		f.Respondent, f.CaseNumber, string(caseNumbersJSON), f.FilingYear, pgNullTime(f.FilingDate),
		string(f.Status), f.OCRFailed, f.PageCount, f.DiscoveredAt.UTC(), pgNullTime(f.ProcessedAt),
	)
	return eris.Wrapf(err, "postgres: upsert filing %s", f.SourceURL)
}

// BulkUpsertFilings writes a discovery batch in one round trip via a temp
// table and COPY.
func (s *PostgresStore) BulkUpsertFilings(ctx context.Context, filings []model.Filing) (int64, error) {
	columns := []string{
		"id", "source_url", "title", "title_raw", "pdf_path", "text_path", "doc_type",
		"respondent", "case_number", "case_numbers", "filing_year", "filing_date",
		"status", "ocr_failed", "page_count", "discovered_at", "processed_at",
	}

	rows := make([][]any, 0, len(filings))
	for i := range filings {
		f := &filings[i]
		if f.ID == "" {
			f.ID = uuid.New().String()
		}
		if f.DiscoveredAt.IsZero() {
			f.DiscoveredAt = time.Now().UTC()
		}
		caseNumbersJSON, err := json.Marshal(f.CaseNumbers)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal case numbers")
		}
		rows = append(rows, []any{
			f.ID, f.SourceURL, f.Title, f.TitleRaw, f.PDFPath, f.TextPath, f.DocType,
			f.Respondent, f.CaseNumber, string(caseNumbersJSON), f.FilingYear, pgNullTime(f.FilingDate),
			string(f.Status), f.OCRFailed, f.PageCount, f.DiscoveredAt.UTC(), pgNullTime(f.ProcessedAt),
		})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "filings",
		Columns:      columns,
		ConflictKeys: []string{"source_url"},
		UpdateCols: []string{
			"title", "title_raw", "pdf_path", "text_path", "doc_type",
			"respondent", "case_number", "case_numbers", "filing_year", "filing_date",
			"status", "ocr_failed", "page_count", "processed_at",
		},
	}, rows)
}

func (s *PostgresStore) GetFiling(ctx context.Context, sourceURL string) (*model.Filing, error) {
	row := s.pool.QueryRow(ctx, sqlGetFiling, sourceURL)
	f, err := scanPgFiling(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return f, err
}

func (s *PostgresStore) ListFilings(ctx context.Context, filter FilingFilter) ([]model.Filing, error) {
	query := `
		SELECT id, source_url, title, title_raw, pdf_path, text_path, doc_type,
		       respondent, case_number, case_numbers, filing_year, filing_date,
		       status, ocr_failed, page_count, discovered_at, processed_at
		FROM filings WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += ` AND filing_year = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY discovered_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list filings")
	}
	defer rows.Close()

	var filings []model.Filing
	for rows.Next() {
		f, err := scanPgFiling(rows)
		if err != nil {
			return nil, err
		}
		filings = append(filings, *f)
	}
	return filings, eris.Wrap(rows.Err(), "postgres: list filings iterate")
}

func (s *PostgresStore) SetFilingStatus(ctx context.Context, sourceURL string, status model.DocStatus) error {
	tag, err := s.pool.Exec(ctx, sqlSetFilingStatus, string(status), sourceURL)
	if err != nil {
		return eris.Wrapf(err, "postgres: set filing status %s", sourceURL)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("filing not found: %s", sourceURL)
	}
	return nil
}

func (s *PostgresStore) UpsertComplaint(ctx context.Context, c *model.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.UpdatedAt = time.Now().UTC()

	extractedJSON, err := marshalNullable(c.Extracted)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal complaint facts")
	}
	extractionJSON, err := marshalNullable(c.Extraction)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extraction version")
	}

	_, err = s.pool.Exec(ctx, sqlUpsertComplaint,
		c.ID, c.CaseNumber, c.CasePrefix, c.SeriesIndex, c.SeriesTotal, c.SourceURL,
		c.DocType, c.Respondent, c.FilingYear, pgNullTime(c.FilingDate), c.IsAmended,
		c.AmendsCaseNum, c.AmendmentSummary, c.Text, c.OCRFailed,
		extractedJSON, extractionJSON, c.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert complaint %s", c.CaseNumber)
}

func (s *PostgresStore) GetComplaint(ctx context.Context, caseNumber string) (*model.Complaint, error) {
	row := s.pool.QueryRow(ctx, sqlSelectComplaint+` WHERE case_number = $1`, caseNumber)
	c, err := scanPgComplaint(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return c, err
}

func (s *PostgresStore) ListComplaints(ctx context.Context) ([]model.Complaint, error) {
	return s.queryComplaints(ctx, sqlSelectComplaint+` ORDER BY case_number`)
}

func (s *PostgresStore) ListComplaintsByPrefix(ctx context.Context, casePrefix string) ([]model.Complaint, error) {
	return s.queryComplaints(ctx, sqlSelectComplaint+` WHERE case_prefix = $1 ORDER BY case_number`, casePrefix)
}

func (s *PostgresStore) queryComplaints(ctx context.Context, query string, args ...any) ([]model.Complaint, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query complaints")
	}
	defer rows.Close()

	var complaints []model.Complaint
	for rows.Next() {
		c, err := scanPgComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, eris.Wrap(rows.Err(), "postgres: query complaints iterate")
}

func (s *PostgresStore) UpsertSettlement(ctx context.Context, st *model.Settlement) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	st.UpdatedAt = time.Now().UTC()

	caseNumbersJSON, err := json.Marshal(st.CaseNumbers)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal case numbers")
	}
	refsJSON, err := json.Marshal(st.ComplaintRefs)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal complaint refs")
	}
	extractedJSON, err := marshalNullable(st.Extracted)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal settlement facts")
	}
	extractionJSON, err := marshalNullable(st.Extraction)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal extraction version")
	}

	_, err = s.pool.Exec(ctx, sqlUpsertSettlement,
		st.ID, st.SourceURL, st.DocType, st.Respondent, string(caseNumbersJSON), string(refsJSON),
		st.FilingYear, pgNullTime(st.FilingDate), st.Outcome, st.Text, st.OCRFailed,
		extractedJSON, extractionJSON, st.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert settlement %s", st.SourceURL)
}

func (s *PostgresStore) GetSettlement(ctx context.Context, sourceURL string) (*model.Settlement, error) {
	row := s.pool.QueryRow(ctx, sqlSelectSettlement+` WHERE source_url = $1`, sourceURL)
	st, err := scanPgSettlement(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return st, err
}

func (s *PostgresStore) ListSettlements(ctx context.Context) ([]model.Settlement, error) {
	rows, err := s.pool.Query(ctx, sqlSelectSettlement+` ORDER BY source_url`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list settlements")
	}
	defer rows.Close()

	var settlements []model.Settlement
	for rows.Next() {
		st, err := scanPgSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *st)
	}
	return settlements, eris.Wrap(rows.Err(), "postgres: list settlements iterate")
}

func (s *PostgresStore) UpsertLicenseOnly(ctx context.Context, f *model.LicenseOnlyFiling) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.UpdatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx, sqlUpsertLicenseOnly,
		f.ID, f.SourceURL, f.LicenseNumber, f.DocType, f.Respondent, pgNullTime(f.FilingDate),
		f.Text, f.OCRFailed, f.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: upsert license-only %s", f.SourceURL)
}

func (s *PostgresStore) ListLicenseOnly(ctx context.Context) ([]model.LicenseOnlyFiling, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_url, license_number, doc_type, respondent, filing_date,
		       text, ocr_failed, updated_at
		FROM license_only ORDER BY source_url`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list license-only")
	}
	defer rows.Close()

	var filings []model.LicenseOnlyFiling
	for rows.Next() {
		var f model.LicenseOnlyFiling
		var respondent, text *string
		var filingDate *time.Time
		if err := rows.Scan(&f.ID, &f.SourceURL, &f.LicenseNumber, &f.DocType, &respondent,
			&filingDate, &text, &f.OCRFailed, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan license-only")
		}
		f.Respondent = deref(respondent)
		f.Text = deref(text)
		if filingDate != nil {
			f.FilingDate = *filingDate
		}
		filings = append(filings, f)
	}
	return filings, eris.Wrap(rows.Err(), "postgres: list license-only iterate")
}

func (s *PostgresStore) RecordFailure(ctx context.Context, rec *model.FailureRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx, sqlRecordFailure,
		rec.ID, rec.SourceURL, rec.CaseNumber, string(rec.Stage), string(rec.Kind), rec.Reason, rec.OccurredAt,
	)
	return eris.Wrapf(err, "postgres: record failure %s", rec.SourceURL)
}

func (s *PostgresStore) ClearFailures(ctx context.Context, sourceURL string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM failures WHERE source_url = $1`, sourceURL)
	return eris.Wrapf(err, "postgres: clear failures %s", sourceURL)
}

func (s *PostgresStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, source_url, case_number, stage, kind, reason, occurred_at
		FROM failures ORDER BY occurred_at`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list failures")
	}
	defer rows.Close()

	var records []model.FailureRecord
	for rows.Next() {
		var rec model.FailureRecord
		var caseNumber, reason *string
		if err := rows.Scan(&rec.ID, &rec.SourceURL, &caseNumber, &rec.Stage, &rec.Kind,
			&reason, &rec.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan failure")
		}
		rec.CaseNumber = deref(caseNumber)
		rec.Reason = deref(reason)
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list failures iterate")
}

// helpers

func scanPgFiling(row pgx.Row) (*model.Filing, error) {
	var f model.Filing
	var titleRaw, pdfPath, textPath, respondent, caseNumber *string
	var caseNumbersJSON []byte
	var filingDate, processedAt *time.Time

	err := row.Scan(&f.ID, &f.SourceURL, &f.Title, &titleRaw, &pdfPath, &textPath, &f.DocType,
		&respondent, &caseNumber, &caseNumbersJSON, &f.FilingYear, &filingDate,
		&f.Status, &f.OCRFailed, &f.PageCount, &f.DiscoveredAt, &processedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan filing")
	}

	f.TitleRaw = deref(titleRaw)
	f.PDFPath = deref(pdfPath)
	f.TextPath = deref(textPath)
	f.Respondent = deref(respondent)
	f.CaseNumber = deref(caseNumber)
	if filingDate != nil {
		f.FilingDate = *filingDate
	}
	if processedAt != nil {
		f.ProcessedAt = *processedAt
	}
	if err := json.Unmarshal(caseNumbersJSON, &f.CaseNumbers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal case numbers")
	}
	return &f, nil
}

func scanPgComplaint(row pgx.Row) (*model.Complaint, error) {
	var c model.Complaint
	var respondent, amendsCaseNum, amendmentSummary, text *string
	var extractedJSON, extractionJSON []byte
	var filingDate *time.Time

	err := row.Scan(&c.ID, &c.CaseNumber, &c.CasePrefix, &c.SeriesIndex, &c.SeriesTotal, &c.SourceURL,
		&c.DocType, &respondent, &c.FilingYear, &filingDate, &c.IsAmended,
		&amendsCaseNum, &amendmentSummary, &text, &c.OCRFailed,
		&extractedJSON, &extractionJSON, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan complaint")
	}

	c.Respondent = deref(respondent)
	c.AmendsCaseNum = deref(amendsCaseNum)
	c.AmendmentSummary = deref(amendmentSummary)
	c.Text = deref(text)
	if filingDate != nil {
		c.FilingDate = *filingDate
	}
	if len(extractedJSON) > 0 {
		c.Extracted = &model.ComplaintFacts{}
		if err := json.Unmarshal(extractedJSON, c.Extracted); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal complaint facts")
		}
	}
	if len(extractionJSON) > 0 {
		c.Extraction = &model.ExtractionVersion{}
		if err := json.Unmarshal(extractionJSON, c.Extraction); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal extraction version")
		}
	}
	return &c, nil
}

func scanPgSettlement(row pgx.Row) (*model.Settlement, error) {
	var st model.Settlement
	var respondent, outcome, text *string
	var caseNumbersJSON, refsJSON, extractedJSON, extractionJSON []byte
	var filingDate *time.Time

	err := row.Scan(&st.ID, &st.SourceURL, &st.DocType, &respondent, &caseNumbersJSON, &refsJSON,
		&st.FilingYear, &filingDate, &outcome, &text, &st.OCRFailed,
		&extractedJSON, &extractionJSON, &st.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan settlement")
	}

	st.Respondent = deref(respondent)
	st.Outcome = deref(outcome)
	st.Text = deref(text)
	if filingDate != nil {
		st.FilingDate = *filingDate
	}
	if err := json.Unmarshal(caseNumbersJSON, &st.CaseNumbers); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal case numbers")
	}
	if err := json.Unmarshal(refsJSON, &st.ComplaintRefs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal complaint refs")
	}
	if len(extractedJSON) > 0 {
		st.Extracted = &model.SettlementFacts{}
		if err := json.Unmarshal(extractedJSON, st.Extracted); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal settlement facts")
		}
	}
	if len(extractionJSON) > 0 {
		st.Extraction = &model.ExtractionVersion{}
		if err := json.Unmarshal(extractionJSON, st.Extraction); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal extraction version")
		}
	}
	return &st, nil
}

func pgNullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

