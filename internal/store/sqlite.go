package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/boardwatch/filings-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS filings (
	id            TEXT PRIMARY KEY,
	source_url    TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL,
	title_raw     TEXT,
	pdf_path      TEXT,
	text_path     TEXT,
	doc_type      TEXT NOT NULL DEFAULT '',
	respondent    TEXT,
	case_number   TEXT,
	case_numbers  TEXT NOT NULL DEFAULT '[]',
	filing_year   INTEGER NOT NULL DEFAULT 0,
	filing_date   DATETIME,
	status        TEXT NOT NULL DEFAULT 'discovered',
	ocr_failed    INTEGER NOT NULL DEFAULT 0,
	page_count    INTEGER NOT NULL DEFAULT 0,
	discovered_at DATETIME NOT NULL,
	processed_at  DATETIME
);

CREATE TABLE IF NOT EXISTS complaints (
	id                 TEXT PRIMARY KEY,
	case_number        TEXT NOT NULL UNIQUE,
	case_prefix        TEXT NOT NULL,
	series_index       INTEGER NOT NULL DEFAULT 0,
	series_total       INTEGER NOT NULL DEFAULT 0,
	source_url         TEXT NOT NULL,
	doc_type           TEXT NOT NULL,
	respondent         TEXT,
	filing_year        INTEGER NOT NULL DEFAULT 0,
	filing_date        DATETIME,
	is_amended         INTEGER NOT NULL DEFAULT 0,
	amends_case_number TEXT,
	amendment_summary  TEXT,
	text               TEXT,
	ocr_failed         INTEGER NOT NULL DEFAULT 0,
	extracted          TEXT,
	extraction         TEXT,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settlements (
	id                 TEXT PRIMARY KEY,
	source_url         TEXT NOT NULL UNIQUE,
	doc_type           TEXT NOT NULL,
	respondent         TEXT,
	case_numbers       TEXT NOT NULL DEFAULT '[]',
	complaint_refs     TEXT NOT NULL DEFAULT '[]',
	filing_year        INTEGER NOT NULL DEFAULT 0,
	filing_date        DATETIME,
	resolution_outcome TEXT,
	text               TEXT,
	ocr_failed         INTEGER NOT NULL DEFAULT 0,
	extracted          TEXT,
	extraction         TEXT,
	updated_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS license_only (
	id             TEXT PRIMARY KEY,
	source_url     TEXT NOT NULL UNIQUE,
	license_number TEXT NOT NULL,
	doc_type       TEXT NOT NULL,
	respondent     TEXT,
	filing_date    DATETIME,
	text           TEXT,
	ocr_failed     INTEGER NOT NULL DEFAULT 0,
	updated_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS failures (
	id          TEXT PRIMARY KEY,
	source_url  TEXT NOT NULL,
	case_number TEXT,
	stage       TEXT NOT NULL,
	kind        TEXT NOT NULL,
	reason      TEXT,
	occurred_at DATETIME NOT NULL,
	UNIQUE(source_url, stage)
);

CREATE INDEX IF NOT EXISTS idx_filings_status ON filings(status);
CREATE INDEX IF NOT EXISTS idx_filings_year ON filings(filing_year);
CREATE INDEX IF NOT EXISTS idx_complaints_prefix ON complaints(case_prefix);
CREATE INDEX IF NOT EXISTS idx_failures_kind ON failures(kind);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertFiling(ctx context.Context, f *model.Filing) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	if f.DiscoveredAt.IsZero() {
		f.DiscoveredAt = time.Now().UTC()
	}
	caseNumbersJSON, err := json.Marshal(f.CaseNumbers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal case numbers")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO filings (
			id, source_url, title, title_raw, pdf_path, text_path, doc_type,
			respondent, case_number, case_numbers, filing_year, filing_date,
			status, ocr_failed, page_count, discovered_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			title = excluded.title,
			title_raw = excluded.title_raw,
			pdf_path = excluded.pdf_path,
			text_path = excluded.text_path,
			doc_type = excluded.doc_type,
			respondent = excluded.respondent,
			case_number = excluded.case_number,
			case_numbers = excluded.case_numbers,
			filing_year = excluded.filing_year,
			filing_date = excluded.filing_date,
			status = excluded.status,
			ocr_failed = excluded.ocr_failed,
			page_count = excluded.page_count,
			processed_at = excluded.processed_at`,
		f.ID, f.SourceURL, f.Title, f.TitleRaw, f.PDFPath, f.TextPath, f.DocType,
		f.Respondent, f.CaseNumber, string(caseNumbersJSON), f.FilingYear, nullTime(f.FilingDate),
		string(f.Status), f.OCRFailed, f.PageCount, f.DiscoveredAt.UTC(), nullTime(f.ProcessedAt),
	)
	return eris.Wrapf(err, "sqlite: upsert filing %s", f.SourceURL)
}

func (s *SQLiteStore) BulkUpsertFilings(ctx context.Context, filings []model.Filing) (int64, error) {
	var n int64
	for i := range filings {
		if err := s.UpsertFiling(ctx, &filings[i]); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (s *SQLiteStore) GetFiling(ctx context.Context, sourceURL string) (*model.Filing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, title, title_raw, pdf_path, text_path, doc_type,
		       respondent, case_number, case_numbers, filing_year, filing_date,
		       status, ocr_failed, page_count, discovered_at, processed_at
		FROM filings WHERE source_url = ?`,
		sourceURL,
	)
	f, err := scanFiling(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return f, err
}

func (s *SQLiteStore) ListFilings(ctx context.Context, filter FilingFilter) ([]model.Filing, error) {
	query := `
		SELECT id, source_url, title, title_raw, pdf_path, text_path, doc_type,
		       respondent, case_number, case_numbers, filing_year, filing_date,
		       status, ocr_failed, page_count, discovered_at, processed_at
		FROM filings WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Year != 0 {
		query += ` AND filing_year = ?`
		args = append(args, filter.Year)
	}
	query += ` ORDER BY discovered_at`

	limit := filter.Limit
	if limit <= 0 {
		limit = 1000
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list filings")
	}
	defer rows.Close()

	var filings []model.Filing
	for rows.Next() {
		f, err := scanFiling(rows)
		if err != nil {
			return nil, err
		}
		filings = append(filings, *f)
	}
	return filings, eris.Wrap(rows.Err(), "sqlite: list filings iterate")
}

func (s *SQLiteStore) SetFilingStatus(ctx context.Context, sourceURL string, status model.DocStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE filings SET status = ? WHERE source_url = ?`,
		string(status), sourceURL,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set filing status %s", sourceURL)
	}
	return checkRowsAffected(res, "filing", sourceURL)
}

func (s *SQLiteStore) UpsertComplaint(ctx context.Context, c *model.Complaint) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.UpdatedAt = time.Now().UTC()

	extractedJSON, err := marshalNullable(c.Extracted)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal complaint facts")
	}
	extractionJSON, err := marshalNullable(c.Extraction)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extraction version")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO complaints (
			id, case_number, case_prefix, series_index, series_total, source_url,
			doc_type, respondent, filing_year, filing_date, is_amended,
			amends_case_number, amendment_summary, text, ocr_failed,
			extracted, extraction, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(case_number) DO UPDATE SET
			case_prefix = excluded.case_prefix,
			series_index = excluded.series_index,
			series_total = excluded.series_total,
			source_url = excluded.source_url,
			doc_type = excluded.doc_type,
			respondent = excluded.respondent,
			filing_year = excluded.filing_year,
			filing_date = excluded.filing_date,
			is_amended = excluded.is_amended,
			amends_case_number = excluded.amends_case_number,
			amendment_summary = excluded.amendment_summary,
			text = excluded.text,
			ocr_failed = excluded.ocr_failed,
			extracted = excluded.extracted,
			extraction = excluded.extraction,
			updated_at = excluded.updated_at`,
		c.ID, c.CaseNumber, c.CasePrefix, c.SeriesIndex, c.SeriesTotal, c.SourceURL,
		c.DocType, c.Respondent, c.FilingYear, nullTime(c.FilingDate), c.IsAmended,
		c.AmendsCaseNum, c.AmendmentSummary, c.Text, c.OCRFailed,
		extractedJSON, extractionJSON, c.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert complaint %s", c.CaseNumber)
}

func (s *SQLiteStore) GetComplaint(ctx context.Context, caseNumber string) (*model.Complaint, error) {
	row := s.db.QueryRowContext(ctx, selectComplaint+` WHERE case_number = ?`, caseNumber)
	c, err := scanComplaint(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (s *SQLiteStore) ListComplaints(ctx context.Context) ([]model.Complaint, error) {
	return s.queryComplaints(ctx, selectComplaint+` ORDER BY case_number`)
}

func (s *SQLiteStore) ListComplaintsByPrefix(ctx context.Context, casePrefix string) ([]model.Complaint, error) {
	return s.queryComplaints(ctx, selectComplaint+` WHERE case_prefix = ? ORDER BY case_number`, casePrefix)
}

func (s *SQLiteStore) queryComplaints(ctx context.Context, query string, args ...any) ([]model.Complaint, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query complaints")
	}
	defer rows.Close()

	var complaints []model.Complaint
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		complaints = append(complaints, *c)
	}
	return complaints, eris.Wrap(rows.Err(), "sqlite: query complaints iterate")
}

func (s *SQLiteStore) UpsertSettlement(ctx context.Context, st *model.Settlement) error {
	if st.ID == "" {
		st.ID = uuid.New().String()
	}
	st.UpdatedAt = time.Now().UTC()

	caseNumbersJSON, err := json.Marshal(st.CaseNumbers)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal case numbers")
	}
	refsJSON, err := json.Marshal(st.ComplaintRefs)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal complaint refs")
	}
	extractedJSON, err := marshalNullable(st.Extracted)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal settlement facts")
	}
	extractionJSON, err := marshalNullable(st.Extraction)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal extraction version")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settlements (
			id, source_url, doc_type, respondent, case_numbers, complaint_refs,
			filing_year, filing_date, resolution_outcome, text, ocr_failed,
			extracted, extraction, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			doc_type = excluded.doc_type,
			respondent = excluded.respondent,
			case_numbers = excluded.case_numbers,
			complaint_refs = excluded.complaint_refs,
			filing_year = excluded.filing_year,
			filing_date = excluded.filing_date,
			resolution_outcome = excluded.resolution_outcome,
			text = excluded.text,
			ocr_failed = excluded.ocr_failed,
			extracted = excluded.extracted,
			extraction = excluded.extraction,
			updated_at = excluded.updated_at`,
		st.ID, st.SourceURL, st.DocType, st.Respondent, string(caseNumbersJSON), string(refsJSON),
		st.FilingYear, nullTime(st.FilingDate), st.Outcome, st.Text, st.OCRFailed,
		extractedJSON, extractionJSON, st.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert settlement %s", st.SourceURL)
}

func (s *SQLiteStore) GetSettlement(ctx context.Context, sourceURL string) (*model.Settlement, error) {
	row := s.db.QueryRowContext(ctx, selectSettlement+` WHERE source_url = ?`, sourceURL)
	st, err := scanSettlement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return st, err
}

func (s *SQLiteStore) ListSettlements(ctx context.Context) ([]model.Settlement, error) {
	rows, err := s.db.QueryContext(ctx, selectSettlement+` ORDER BY source_url`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list settlements")
	}
	defer rows.Close()

	var settlements []model.Settlement
	for rows.Next() {
		st, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, *st)
	}
	return settlements, eris.Wrap(rows.Err(), "sqlite: list settlements iterate")
}

func (s *SQLiteStore) UpsertLicenseOnly(ctx context.Context, f *model.LicenseOnlyFiling) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	f.UpdatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO license_only (
			id, source_url, license_number, doc_type, respondent, filing_date,
			text, ocr_failed, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			license_number = excluded.license_number,
			doc_type = excluded.doc_type,
			respondent = excluded.respondent,
			filing_date = excluded.filing_date,
			text = excluded.text,
			ocr_failed = excluded.ocr_failed,
			updated_at = excluded.updated_at`,
		f.ID, f.SourceURL, f.LicenseNumber, f.DocType, f.Respondent, nullTime(f.FilingDate),
		f.Text, f.OCRFailed, f.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert license-only %s", f.SourceURL)
}

func (s *SQLiteStore) ListLicenseOnly(ctx context.Context) ([]model.LicenseOnlyFiling, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_url, license_number, doc_type, respondent, filing_date,
		       text, ocr_failed, updated_at
		FROM license_only ORDER BY source_url`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list license-only")
	}
	defer rows.Close()

	var filings []model.LicenseOnlyFiling
	for rows.Next() {
		var f model.LicenseOnlyFiling
		var filingDate sql.NullTime
		var respondent, text sql.NullString
		if err := rows.Scan(&f.ID, &f.SourceURL, &f.LicenseNumber, &f.DocType, &respondent,
			&filingDate, &text, &f.OCRFailed, &f.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan license-only")
		}
		f.Respondent = respondent.String
		f.Text = text.String
		f.FilingDate = filingDate.Time
		filings = append(filings, f)
	}
	return filings, eris.Wrap(rows.Err(), "sqlite: list license-only iterate")
}

func (s *SQLiteStore) RecordFailure(ctx context.Context, rec *model.FailureRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO failures (id, source_url, case_number, stage, kind, reason, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source_url, stage) DO UPDATE SET
			case_number = excluded.case_number,
			kind = excluded.kind,
			reason = excluded.reason,
			occurred_at = excluded.occurred_at`,
		rec.ID, rec.SourceURL, rec.CaseNumber, string(rec.Stage), string(rec.Kind), rec.Reason, rec.OccurredAt,
	)
	return eris.Wrapf(err, "sqlite: record failure %s", rec.SourceURL)
}

func (s *SQLiteStore) ClearFailures(ctx context.Context, sourceURL string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM failures WHERE source_url = ?`, sourceURL)
	return eris.Wrapf(err, "sqlite: clear failures %s", sourceURL)
}

func (s *SQLiteStore) ListFailures(ctx context.Context) ([]model.FailureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source_url, case_number, stage, kind, reason, occurred_at
		FROM failures ORDER BY occurred_at`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list failures")
	}
	defer rows.Close()

	var records []model.FailureRecord
	for rows.Next() {
		var rec model.FailureRecord
		var caseNumber, reason sql.NullString
		if err := rows.Scan(&rec.ID, &rec.SourceURL, &caseNumber, &rec.Stage, &rec.Kind,
			&reason, &rec.OccurredAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan failure")
		}
		rec.CaseNumber = caseNumber.String
		rec.Reason = reason.String
		records = append(records, rec)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list failures iterate")
}

// helpers

const selectComplaint = `
	SELECT id, case_number, case_prefix, series_index, series_total, source_url,
	       doc_type, respondent, filing_year, filing_date, is_amended,
	       amends_case_number, amendment_summary, text, ocr_failed,
	       extracted, extraction, updated_at
	FROM complaints`

const selectSettlement = `
	SELECT id, source_url, doc_type, respondent, case_numbers, complaint_refs,
	       filing_year, filing_date, resolution_outcome, text, ocr_failed,
	       extracted, extraction, updated_at
	FROM settlements`

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFiling(row scannable) (*model.Filing, error) {
	var f model.Filing
	var titleRaw, pdfPath, textPath, respondent, caseNumber sql.NullString
	var caseNumbersJSON string
	var filingDate, processedAt sql.NullTime

	err := row.Scan(&f.ID, &f.SourceURL, &f.Title, &titleRaw, &pdfPath, &textPath, &f.DocType,
		&respondent, &caseNumber, &caseNumbersJSON, &f.FilingYear, &filingDate,
		&f.Status, &f.OCRFailed, &f.PageCount, &f.DiscoveredAt, &processedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan filing")
	}

	f.TitleRaw = titleRaw.String
	f.PDFPath = pdfPath.String
	f.TextPath = textPath.String
	f.Respondent = respondent.String
	f.CaseNumber = caseNumber.String
	f.FilingDate = filingDate.Time
	f.ProcessedAt = processedAt.Time
	if err := json.Unmarshal([]byte(caseNumbersJSON), &f.CaseNumbers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal case numbers")
	}
	return &f, nil
}

func scanComplaint(row scannable) (*model.Complaint, error) {
	var c model.Complaint
	var respondent, amendsCaseNum, amendmentSummary, text sql.NullString
	var extractedJSON, extractionJSON sql.NullString
	var filingDate sql.NullTime

	err := row.Scan(&c.ID, &c.CaseNumber, &c.CasePrefix, &c.SeriesIndex, &c.SeriesTotal, &c.SourceURL,
		&c.DocType, &respondent, &c.FilingYear, &filingDate, &c.IsAmended,
		&amendsCaseNum, &amendmentSummary, &text, &c.OCRFailed,
		&extractedJSON, &extractionJSON, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan complaint")
	}

	c.Respondent = respondent.String
	c.AmendsCaseNum = amendsCaseNum.String
	c.AmendmentSummary = amendmentSummary.String
	c.Text = text.String
	c.FilingDate = filingDate.Time
	if extractedJSON.Valid {
		c.Extracted = &model.ComplaintFacts{}
		if err := json.Unmarshal([]byte(extractedJSON.String), c.Extracted); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal complaint facts")
		}
	}
	if extractionJSON.Valid {
		c.Extraction = &model.ExtractionVersion{}
		if err := json.Unmarshal([]byte(extractionJSON.String), c.Extraction); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal extraction version")
		}
	}
	return &c, nil
}

func scanSettlement(row scannable) (*model.Settlement, error) {
	var st model.Settlement
	var respondent, outcome, text sql.NullString
	var caseNumbersJSON, refsJSON string
	var extractedJSON, extractionJSON sql.NullString
	var filingDate sql.NullTime

	err := row.Scan(&st.ID, &st.SourceURL, &st.DocType, &respondent, &caseNumbersJSON, &refsJSON,
		&st.FilingYear, &filingDate, &outcome, &text, &st.OCRFailed,
		&extractedJSON, &extractionJSON, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan settlement")
	}

	st.Respondent = respondent.String
	st.Outcome = outcome.String
	st.Text = text.String
	st.FilingDate = filingDate.Time
	if err := json.Unmarshal([]byte(caseNumbersJSON), &st.CaseNumbers); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal case numbers")
	}
	if err := json.Unmarshal([]byte(refsJSON), &st.ComplaintRefs); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal complaint refs")
	}
	if extractedJSON.Valid {
		st.Extracted = &model.SettlementFacts{}
		if err := json.Unmarshal([]byte(extractedJSON.String), st.Extracted); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal settlement facts")
		}
	}
	if extractionJSON.Valid {
		st.Extraction = &model.ExtractionVersion{}
		if err := json.Unmarshal([]byte(extractionJSON.String), st.Extraction); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal extraction version")
		}
	}
	return &st, nil
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC()
}

func marshalNullable[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
