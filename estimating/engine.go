package estimating

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"begroting/config"
)

// Engine runs every mutation of an estimate aggregate. Each mutation holds
// the estimate's exclusive lock and one database transaction for the change
// itself plus the recompute of every affected total, so stored totals never
// diverge from the stored lines.
type Engine struct {
	app   core.App
	cfg   config.Config
	locks *lockTable
}

func NewEngine(app core.App, cfg config.Config) *Engine {
	return &Engine{
		app:   app,
		cfg:   cfg,
		locks: newLockTable(),
	}
}

// logger is resolved per call; the app logger only exists after bootstrap.
func (e *Engine) logger() *slog.Logger {
	return e.app.Logger().With("component", "estimating")
}

// Change is the outcome of a mutation: the recomputed tree and the id of
// the entity that was created or modified.
type Change struct {
	Tree *Tree
	ID   string
}

// Tree loads an estimate tree with its stored totals. Exporters and report
// views read through here; it takes no lock and never recomputes.
func (e *Engine) Tree(estimateID string) (*Tree, error) {
	return NewStore(e.app).LoadEstimateTree(estimateID)
}

// Estimate loads the estimate row only.
func (e *Engine) Estimate(estimateID string) (*Estimate, error) {
	return NewStore(e.app).LoadEstimate(estimateID)
}

func (e *Engine) ListEstimates(projectID string) ([]*Estimate, error) {
	store := NewStore(e.app)
	if err := store.ProjectExists(projectID); err != nil {
		return nil, err
	}
	return store.ListEstimates(projectID)
}

// mutate loads the estimate under its lock, lets fn change the in-memory
// tree through m, recomputes what fn touched and persists the result, all
// in one transaction.
func (e *Engine) mutate(ctx context.Context, estimateID string, fn func(m *mutation) error) (*Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	release, err := e.locks.acquire(ctx, estimateID, e.cfg.LockTimeout)
	if err != nil {
		e.logger().Warn("estimate lock timed out", "estimateId", estimateID, "error", err)
		return nil, err
	}
	defer release()

	var tree *Tree
	err = e.app.RunInTransaction(func(txApp core.App) error {
		store := NewStore(txApp)
		t, err := store.LoadEstimateTree(estimateID)
		if err != nil {
			return err
		}
		m := newMutation(t, store)
		if err := fn(m); err != nil {
			return err
		}
		if err := m.commit(); err != nil {
			return err
		}
		tree = t
		return nil
	})
	if err != nil {
		return nil, classifyStoreError(err)
	}
	return tree, nil
}

// classifyStoreError maps aborted or busy transactions to
// ErrConcurrencyConflict so callers retry the whole operation.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var nf *NotFoundError
	if errors.As(err, &ve) || errors.As(err, &nf) || errors.Is(err, ErrConcurrencyConflict) {
		return err
	}
	msg := err.Error()
	if strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY") {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

// mutation records what one operation changed so commit can recompute and
// write only that.
type mutation struct {
	tree  *Tree
	store *Store

	dirtyLines      map[string]bool
	dirtyChapters   map[string]bool
	staleChapters   map[string]bool
	deletedLines    []string
	deletedChapters []string
	costsChanged    bool
	headerChanged   bool
}

func newMutation(t *Tree, s *Store) *mutation {
	return &mutation{
		tree:          t,
		store:         s,
		dirtyLines:    make(map[string]bool),
		dirtyChapters: make(map[string]bool),
		staleChapters: make(map[string]bool),
	}
}

func (m *mutation) line(id string) (*Line, error) {
	l := m.tree.Line(id)
	if l == nil {
		return nil, notFound("line", id)
	}
	return l, nil
}

func (m *mutation) chapter(id string) (*Chapter, error) {
	c := m.tree.Chapter(id)
	if c == nil {
		return nil, notFound("chapter", id)
	}
	return c, nil
}

// linePriced reprices l and marks its chapter for rollup.
func (m *mutation) linePriced(l *Line) error {
	if err := l.recompute(); err != nil {
		return err
	}
	m.dirtyLines[l.ID] = true
	m.chapterStale(l.ChapterID)
	m.costsChanged = true
	return nil
}

func (m *mutation) chapterStale(chapterID string) {
	if chapterID != "" {
		m.staleChapters[chapterID] = true
	}
}

func (m *mutation) addLine(l *Line) error {
	m.tree.addLine(l)
	return m.linePriced(l)
}

func (m *mutation) moveLine(l *Line, chapterID string) {
	if l.ChapterID == chapterID {
		return
	}
	m.chapterStale(l.ChapterID)
	l.ChapterID = chapterID
	m.chapterStale(chapterID)
	m.dirtyLines[l.ID] = true
	m.costsChanged = true
}

func (m *mutation) deleteLine(l *Line) {
	m.tree.removeLine(l.ID)
	delete(m.dirtyLines, l.ID)
	m.deletedLines = append(m.deletedLines, l.ID)
	m.chapterStale(l.ChapterID)
	m.costsChanged = true
}

func (m *mutation) addChapter(c *Chapter) {
	m.tree.addChapter(c)
	m.dirtyChapters[c.ID] = true
}

func (m *mutation) chapterChanged(c *Chapter) {
	m.dirtyChapters[c.ID] = true
}

func (m *mutation) deleteChapter(c *Chapter) {
	removed := m.tree.removeChapter(c.ID)
	for _, id := range removed {
		delete(m.dirtyLines, id)
	}
	m.deletedChapters = append(m.deletedChapters, c.ID)
	m.costsChanged = true
}

func (m *mutation) nextLineSort(chapterID string) int {
	next := 1
	for _, l := range m.tree.Lines {
		if l.ChapterID == chapterID && l.SortOrder >= next {
			next = l.SortOrder + 1
		}
	}
	return next
}

func (m *mutation) nextChapterSort(parentID string) int {
	next := 1
	for _, c := range m.tree.Children(parentID) {
		if c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	return next
}

// commit runs the recompute chain for everything the mutation touched and
// writes the changed rows. Percentage-only changes skip the aggregators and
// rerun just the markup cascade.
func (m *mutation) commit() error {
	for _, id := range m.deletedChapters {
		if err := m.store.DeleteChapter(id); err != nil {
			return err
		}
	}
	for _, id := range m.deletedLines {
		if err := m.store.DeleteLine(id); err != nil {
			return err
		}
	}

	for id := range m.staleChapters {
		if m.tree.Chapter(id) == nil {
			continue
		}
		if _, err := m.tree.RecomputeChapter(id); err != nil {
			return err
		}
		m.dirtyChapters[id] = true
	}
	if m.costsChanged {
		m.tree.RecomputeEstimate()
	}
	m.tree.ApplyMarkups()

	for _, c := range m.tree.chaptersParentFirst() {
		if !m.dirtyChapters[c.ID] {
			continue
		}
		if err := m.store.SaveChapter(c); err != nil {
			return err
		}
	}
	for _, l := range m.tree.Lines {
		if !m.dirtyLines[l.ID] {
			continue
		}
		if err := m.store.SaveLine(l); err != nil {
			return err
		}
	}

	if m.headerChanged {
		return m.store.SaveEstimate(m.tree.Estimate)
	}
	return m.store.SaveEstimateTotals(m.tree.Estimate.ID, m.tree.Estimate.Totals())
}
