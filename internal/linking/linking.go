// Package linking maintains the settlement-complaint relationship, the
// amendment chain, and per-series case indices. Links are recomputed from
// stored records on every pass rather than maintained incrementally, so a
// complaint processed after its settlement still gets picked up.
package linking

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/boardwatch/filings-cli/internal/model"
)

// Catalog is the subset of the store the resolver reads and writes.
type Catalog interface {
	ListComplaints(ctx context.Context) ([]model.Complaint, error)
	ListComplaintsByPrefix(ctx context.Context, casePrefix string) ([]model.Complaint, error)
	UpsertComplaint(ctx context.Context, c *model.Complaint) error
	ListSettlements(ctx context.Context) ([]model.Settlement, error)
	UpsertSettlement(ctx context.Context, s *model.Settlement) error
}

// Config controls link resolution.
type Config struct {
	// PreferAmended picks the latest amendment-chain member when a
	// settlement's case number resolves to a complaint that was later
	// amended. When false the chain is walked back to the original.
	PreferAmended bool `yaml:"prefer_amended" mapstructure:"prefer_amended"`
}

// DefaultConfig returns the resolver defaults.
func DefaultConfig() Config {
	return Config{PreferAmended: true}
}

// Resolver links settlements to complaints and chains amendments.
type Resolver struct {
	catalog  Catalog
	cfg      Config
	priority func(docType string) int
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithPriority overrides the document-type ranking used to order complaints
// when filing dates tie. The default is the built-in amendment ladder; the
// classifier's configured ladder can be plugged in instead.
func WithPriority(fn func(docType string) int) Option {
	return func(r *Resolver) {
		if fn != nil {
			r.priority = fn
		}
	}
}

// New builds a Resolver.
func New(catalog Catalog, cfg Config, opts ...Option) *Resolver {
	r := &Resolver{catalog: catalog, cfg: cfg, priority: model.ComplaintPriority}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats summarizes one full relink pass.
type Stats struct {
	Settlements          int `json:"settlements"`
	RefsMatched          int `json:"refs_matched"`
	UnmatchedSettlements int `json:"unmatched_settlements"`
	SeriesIndexed        int `json:"series_indexed"`
}

// caseIndex is a point-in-time view of stored complaints for O(1) lookup by
// case number and by amendment back-reference.
type caseIndex struct {
	byCase   map[string]*model.Complaint
	byAmends map[string]*model.Complaint
	byPrefix map[string][]*model.Complaint
}

func buildIndex(complaints []model.Complaint) *caseIndex {
	idx := &caseIndex{
		byCase:   make(map[string]*model.Complaint, len(complaints)),
		byAmends: make(map[string]*model.Complaint),
		byPrefix: make(map[string][]*model.Complaint),
	}
	for i := range complaints {
		c := &complaints[i]
		idx.byCase[c.CaseNumber] = c
		if c.AmendsCaseNum != "" {
			idx.byAmends[c.AmendsCaseNum] = c
		}
		idx.byPrefix[c.CasePrefix] = append(idx.byPrefix[c.CasePrefix], c)
	}
	return idx
}

// resolve maps a settlement case number to the complaint that should carry
// the link, walking the amendment chain per config. The walk is bounded so
// a malformed circular chain cannot hang resolution.
func (idx *caseIndex) resolve(caseNumber string, preferAmended bool) *model.Complaint {
	c, ok := idx.byCase[caseNumber]
	if !ok {
		return nil
	}
	for hops := 0; hops < 10; hops++ {
		if preferAmended {
			next, ok := idx.byAmends[c.CaseNumber]
			if !ok {
				return c
			}
			c = next
			continue
		}
		if c.AmendsCaseNum == "" {
			return c
		}
		orig, ok := idx.byCase[c.AmendsCaseNum]
		if !ok {
			return c
		}
		c = orig
	}
	return c
}

// LinkSettlement recomputes complaint_refs for one settlement and persists
// it. A settlement with zero matches is valid; the gap is reported by the
// caller, not here.
func (r *Resolver) LinkSettlement(ctx context.Context, s *model.Settlement) (int, error) {
	complaints, err := r.catalog.ListComplaints(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "linking: list complaints")
	}
	return r.linkSettlement(ctx, s, buildIndex(complaints))
}

func (r *Resolver) linkSettlement(ctx context.Context, s *model.Settlement, idx *caseIndex) (int, error) {
	var refs []string
	seen := make(map[string]bool)
	for _, cn := range s.CaseNumbers {
		c := idx.resolve(cn, r.cfg.PreferAmended)
		if c == nil || seen[c.CaseNumber] {
			continue
		}
		seen[c.CaseNumber] = true
		refs = append(refs, c.CaseNumber)
	}

	s.ComplaintRefs = refs
	if err := r.catalog.UpsertSettlement(ctx, s); err != nil {
		return 0, eris.Wrapf(err, "linking: upsert settlement %s", s.SourceURL)
	}
	if len(refs) == 0 {
		zap.L().Debug("linking: settlement has no matched complaints",
			zap.String("source_url", s.SourceURL),
			zap.Strings("case_numbers", s.CaseNumbers),
		)
	}
	return len(refs), nil
}

// ChainAmendment finds the original for an amended complaint: the most
// recent prior complaint sharing its case prefix. Filing dates order the
// chain; the document-type ladder breaks ties and covers undated filings.
// priority is the amended complaint's own rank when the caller knows it
// (zero falls back to the resolver's ladder). Returns false when no
// original exists; the complaint still stores with is_amended set and no
// back-reference.
func (r *Resolver) ChainAmendment(ctx context.Context, c *model.Complaint, priority int) (bool, error) {
	if !c.IsAmended {
		return false, nil
	}

	siblings, err := r.catalog.ListComplaintsByPrefix(ctx, c.CasePrefix)
	if err != nil {
		return false, eris.Wrapf(err, "linking: list complaints for prefix %s", c.CasePrefix)
	}

	if priority == 0 {
		priority = r.priority(c.DocType)
	}

	var original *model.Complaint
	var originalPri int
	for i := range siblings {
		sib := &siblings[i]
		if sib.CaseNumber == c.CaseNumber {
			continue
		}
		sibPri := r.priority(sib.DocType)
		if !filedBefore(sib.FilingDate, sibPri, c.FilingDate, priority) {
			continue
		}
		if original == nil || filedBefore(original.FilingDate, originalPri, sib.FilingDate, sibPri) {
			original = sib
			originalPri = sibPri
		}
	}

	if original == nil {
		c.AmendsCaseNum = ""
		zap.L().Warn("linking: amended complaint has no stored original",
			zap.String("case_number", c.CaseNumber),
		)
		return false, nil
	}
	c.AmendsCaseNum = original.CaseNumber
	return true, nil
}

// filedBefore reports whether document a precedes document b in the
// amendment chain. Distinct filing dates decide; equal or missing dates
// fall back to the document-type ladder.
func filedBefore(aDate time.Time, aPri int, bDate time.Time, bPri int) bool {
	if !aDate.IsZero() && !bDate.IsZero() && !aDate.Equal(bDate) {
		return aDate.Before(bDate)
	}
	return aPri < bPri
}

// IndexSeries recomputes series position and total for every complaint in a
// case prefix. The total can exceed the stored count when early members of
// the series were never filed as standalone documents.
func (r *Resolver) IndexSeries(ctx context.Context, casePrefix string) error {
	complaints, err := r.catalog.ListComplaintsByPrefix(ctx, casePrefix)
	if err != nil {
		return eris.Wrapf(err, "linking: list complaints for prefix %s", casePrefix)
	}
	if len(complaints) == 0 {
		return nil
	}

	highest := 0
	for i := range complaints {
		if _, suffix, ok := model.SplitCaseNumber(complaints[i].CaseNumber); ok && suffix > highest {
			highest = suffix
		}
	}
	total := highest
	if len(complaints) > total {
		total = len(complaints)
	}

	for i := range complaints {
		c := &complaints[i]
		_, suffix, ok := model.SplitCaseNumber(c.CaseNumber)
		if !ok {
			continue
		}
		if c.SeriesIndex == suffix && c.SeriesTotal == total {
			continue
		}
		c.SeriesIndex = suffix
		c.SeriesTotal = total
		if err := r.catalog.UpsertComplaint(ctx, c); err != nil {
			return eris.Wrapf(err, "linking: upsert complaint %s", c.CaseNumber)
		}
	}
	return nil
}

// Relink runs a full pass: every settlement's refs and every series index,
// recomputed from what is currently stored.
func (r *Resolver) Relink(ctx context.Context) (*Stats, error) {
	complaints, err := r.catalog.ListComplaints(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "linking: list complaints")
	}
	idx := buildIndex(complaints)

	settlements, err := r.catalog.ListSettlements(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "linking: list settlements")
	}

	stats := &Stats{Settlements: len(settlements)}
	for i := range settlements {
		matched, err := r.linkSettlement(ctx, &settlements[i], idx)
		if err != nil {
			return nil, err
		}
		stats.RefsMatched += matched
		if matched == 0 {
			stats.UnmatchedSettlements++
		}
	}

	prefixes := make([]string, 0, len(idx.byPrefix))
	for prefix := range idx.byPrefix {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		if err := r.IndexSeries(ctx, prefix); err != nil {
			return nil, err
		}
		stats.SeriesIndexed++
	}

	zap.L().Info("linking: relink complete",
		zap.Int("settlements", stats.Settlements),
		zap.Int("refs_matched", stats.RefsMatched),
		zap.Int("unmatched_settlements", stats.UnmatchedSettlements),
		zap.Int("series_indexed", stats.SeriesIndexed),
	)
	return stats, nil
}
