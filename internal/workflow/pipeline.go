// Package workflow drives a classification session end to end: load a
// file, pick a column, discover categories, classify, retry with feedback.
// The store is the durable source of truth; the Pipeline keeps an
// in-memory view that is refreshed from the store after every mutating
// step.
package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
	"github.com/imadezze/ClassificationAlloBrain/internal/classify"
	"github.com/imadezze/ClassificationAlloBrain/internal/dataset"
	"github.com/imadezze/ClassificationAlloBrain/internal/sample"
	"github.com/imadezze/ClassificationAlloBrain/internal/store"
)

// DefaultPromptBudget is the token budget for sample text included in
// discovery prompts.
const DefaultPromptBudget = 4000

// Pipeline is the state of one classification workflow. Construct with
// NewPipeline, then attach a session via CreateSession or LoadSession.
type Pipeline struct {
	store      *store.Store
	discoverer *category.Discoverer
	classifier *classify.Classifier

	// Seed makes sampling reproducible within a run.
	Seed uint64

	session    *store.Session
	table      *dataset.Table
	categories category.Set
}

// NewPipeline creates a Pipeline over the given collaborators.
func NewPipeline(st *store.Store, d *category.Discoverer, c *classify.Classifier) *Pipeline {
	return &Pipeline{store: st, discoverer: d, classifier: c, Seed: 1}
}

// Session returns the attached session, or nil.
func (p *Pipeline) Session() *store.Session {
	return p.session
}

// CreateSession starts a fresh session.
func (p *Pipeline) CreateSession(ctx context.Context, name string) (*store.Session, error) {
	sess, err := p.store.Sessions().Create(ctx, name)
	if err != nil {
		return nil, err
	}
	p.session = sess
	p.table = nil
	p.categories = nil
	return sess, nil
}

// LoadSession attaches an existing session and restores its category set
// from the store. The source table is reloaded from the recorded file when
// it is still readable; otherwise classification requires LoadFile again.
func (p *Pipeline) LoadSession(ctx context.Context, id string) (*store.Session, error) {
	sess, err := p.store.Sessions().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, fmt.Errorf("no session %q", id)
	}
	p.session = sess
	p.table = nil
	p.categories = nil

	if set, err := p.loadCategories(ctx); err == nil {
		p.categories = set
	}
	if sess.SourceFilename != "" {
		if table, err := loadTable(sess.SourceFilename, sess.SheetName); err == nil {
			p.table = table
		}
	}
	return sess, nil
}

// LoadFile loads a CSV or Excel file into the session. sheet applies to
// Excel files only.
func (p *Pipeline) LoadFile(ctx context.Context, path, sheet string) (*dataset.Table, error) {
	if p.session == nil {
		return nil, fmt.Errorf("no active session")
	}

	table, err := loadTable(path, sheet)
	if err != nil {
		return nil, err
	}

	fileType := "csv"
	if isExcel(path) {
		fileType = "excel"
	}
	status := store.StatusFileLoaded
	rows := table.NumRows()
	err = p.store.Sessions().Update(ctx, p.session.ID, store.SessionUpdate{
		Status:         &status,
		SourceFilename: &path,
		FileType:       &fileType,
		SheetName:      &sheet,
		TotalRows:      &rows,
	})
	if err != nil {
		return nil, err
	}

	p.table = table
	return table, p.refreshSession(ctx)
}

// Table returns the loaded table, or an error naming the missing step.
func (p *Pipeline) Table() (*dataset.Table, error) {
	if p.table == nil {
		return nil, fmt.Errorf("no file loaded; run the load step first")
	}
	return p.table, nil
}

// ChooseColumn selects the column to classify. Non-text columns are
// rejected with the table's text-like candidates in the error.
func (p *Pipeline) ChooseColumn(ctx context.Context, name string) error {
	table, err := p.Table()
	if err != nil {
		return err
	}
	if _, err := table.Column(name); err != nil {
		return err
	}

	if !isTextColumn(table, name) {
		candidates := table.TextColumns()
		if len(candidates) == 0 {
			return fmt.Errorf("column %q is not text-like and the table has no text-like columns", name)
		}
		return fmt.Errorf("column %q is not text-like; candidates: %s", name, strings.Join(candidates, ", "))
	}

	return p.updateSession(ctx, store.SessionUpdate{ColumnName: &name})
}

// DiscoverCategories samples the chosen column and proposes targetCount
// categories, recording them as the session's first (or next) category set.
func (p *Pipeline) DiscoverCategories(ctx context.Context, targetCount, maxRetries int) (*category.Result, error) {
	values, err := p.columnValues()
	if err != nil {
		return nil, err
	}

	samples := sample.WithTokenLimit(values, DefaultPromptBudget, sample.StrategyStratified, p.Seed)
	result, err := p.discoverer.Discover(ctx, p.session.ColumnName, samples, targetCount, maxRetries)
	if err != nil {
		return nil, err
	}

	description := fmt.Sprintf("discovered %d categories", len(result.Set))
	if err := p.saveCategories(ctx, result.Set, store.ChangeInitialDiscovery, "", description); err != nil {
		return nil, err
	}

	status := store.StatusCategoriesDiscovered
	if err := p.updateSession(ctx, store.SessionUpdate{Status: &status}); err != nil {
		return nil, err
	}
	return result, nil
}

// Categories returns the session's current category set, loading it from
// the store when the cache is cold.
func (p *Pipeline) Categories(ctx context.Context) (category.Set, error) {
	if p.categories != nil {
		return p.categories, nil
	}
	set, err := p.loadCategories(ctx)
	if err != nil {
		return nil, err
	}
	p.categories = set
	return set, nil
}

// SaveEditedCategories records a user-edited category set as a new
// version.
func (p *Pipeline) SaveEditedCategories(ctx context.Context, set category.Set) error {
	if err := set.Validate(); err != nil {
		return err
	}
	return p.saveCategories(ctx, set, store.ChangeUserEdit, "", "manual edit")
}

// RefineCategories asks the model to rework the current set from free-text
// feedback and records the result as a new version.
func (p *Pipeline) RefineCategories(ctx context.Context, feedback string) (category.Set, error) {
	current, err := p.Categories(ctx)
	if err != nil {
		return nil, err
	}

	var samples []string
	if values, err := p.columnValues(); err == nil {
		samples = sample.Stratified(values, 30, p.Seed)
	}

	refined, err := p.discoverer.Refine(ctx, current, feedback, samples)
	if err != nil {
		return nil, err
	}
	if err := p.saveCategories(ctx, refined, store.ChangeLLMRefinement, feedback, ""); err != nil {
		return nil, err
	}
	return refined, nil
}

func (p *Pipeline) saveCategories(ctx context.Context, set category.Set, changeKind, feedback, description string) error {
	if p.session == nil {
		return fmt.Errorf("no active session")
	}
	data, err := set.JSON()
	if err != nil {
		return err
	}
	if _, err := p.store.Ledger().AppendCategorySet(ctx, p.session.ID, data, changeKind, feedback, description); err != nil {
		return err
	}
	p.categories = set
	return nil
}

func (p *Pipeline) loadCategories(ctx context.Context) (category.Set, error) {
	if p.session == nil {
		return nil, fmt.Errorf("no active session")
	}
	snapshot, err := p.store.Ledger().CurrentCategorySet(ctx, p.session.ID)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, fmt.Errorf("no categories discovered yet")
	}
	return category.SetFromJSON(snapshot.Categories)
}

func (p *Pipeline) columnValues() ([]string, error) {
	table, err := p.Table()
	if err != nil {
		return nil, err
	}
	if p.session == nil || p.session.ColumnName == "" {
		return nil, fmt.Errorf("no column chosen; run the column step first")
	}
	values, err := table.Column(p.session.ColumnName)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("column %q has no non-empty values", p.session.ColumnName)
	}
	return values, nil
}

func (p *Pipeline) updateSession(ctx context.Context, upd store.SessionUpdate) error {
	if err := p.store.Sessions().Update(ctx, p.session.ID, upd); err != nil {
		return err
	}
	return p.refreshSession(ctx)
}

// refreshSession re-reads the session row so the cached view matches the
// store.
func (p *Pipeline) refreshSession(ctx context.Context) error {
	sess, err := p.store.Sessions().Get(ctx, p.session.ID)
	if err != nil {
		return err
	}
	p.session = sess
	return nil
}

func loadTable(path, sheet string) (*dataset.Table, error) {
	if isExcel(path) {
		return dataset.LoadExcel(path, sheet)
	}
	return dataset.LoadCSV(path)
}

func isExcel(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xls":
		return true
	}
	return false
}

func isTextColumn(table *dataset.Table, name string) bool {
	for _, s := range table.Stats() {
		if strings.EqualFold(s.Name, name) {
			return s.IsText
		}
	}
	return false
}
