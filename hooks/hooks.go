// Package hooks implements the named phase bus the engine fires into at
// well-defined points: a mapping from phase to an ordered list of
// handlers, each a callable with a well-typed parameter tuple per phase,
// parameters passed by reference so handlers can mutate them in place.
// The teacher has no callback bus of its own; this follows its habit of
// plain exported structs and functions rather than a reflection-driven
// dispatcher.
package hooks

import "sync"

// StageContext carries the ambient identity of a running job to the six
// stage-level hooks (before_job, before_update_database_from_source_files,
// before_update_database_from_ts_file, before_generate_ts_files,
// before_generate_localized_files, after_job).
type StageContext struct {
	Namespace string
	JobID     string
}

// StageHandler participates in a combine_and chain: the first error
// returned aborts the stage.
type StageHandler func(ctx *StageContext) error

// RewritePathFunc may remap a scanned file's relative path before it is
// compared against the store.
type RewritePathFunc func(relPath *string)

// AfterLoadSourceFileFunc inspects (and may rewrite) a file's text right
// after it is loaded. Returning false vetoes the file (combine_and).
type AfterLoadSourceFileFunc func(path string, text *string) bool

// IsFileOrphanedFunc may force a file to be treated as orphaned
// (combine_or: any handler returning true wins).
type IsFileOrphanedFunc func(relPath string) bool

// CanProcessSourceFileFunc gates whether a file is parsed at all
// (combine_and: all handlers must agree).
type CanProcessSourceFileFunc func(relPath string) bool

// ExtractedString is the mutable per-string parameter passed to
// can_extract and, by convention, carried through disambiguation.
type ExtractedString struct {
	Text      string
	Context   string
	Hint      string
	Flags     []string
	Lang      string
	SourceKey string
}

// CanExtractFunc may veto a single extracted string (combine_and).
type CanExtractFunc func(s *ExtractedString) bool

// CanTranslateFunc may veto emitting a resolved translation, and may
// rewrite it in place (combine_and).
type CanTranslateFunc func(itemID, lang string, translation *string) bool

// GetTranslationPreFunc / GetTranslationFunc form the pre-DB and post-DB
// links of the translation resolution chain: first handler to return a
// non-empty, ok=true result wins.
type GetTranslationPreFunc func(itemID, lang string) (string, bool)
type GetTranslationFunc func(itemID, lang string) (string, bool)

// TSFileItemParams is the mutable parameter passed to
// rewrite_parsed_ts_file_item: handlers may rewrite the translation, its
// comment, its fuzzy flag, or set an item-level comment.
type TSFileItemParams struct {
	Translation string
	Comment     string
	Fuzzy       bool
	ItemComment string
}

// RewriteParsedTSFileItemFunc mutates a just-parsed TS block before it is
// applied to the store.
type RewriteParsedTSFileItemFunc func(p *TSFileItemParams)

// RewriteTranslationFunc may rewrite a resolved translation immediately
// before localized-file substitution.
type RewriteTranslationFunc func(translation *string)

// AddDevCommentFunc contributes extra developer-comment lines for an item
// at TS emission time.
type AddDevCommentFunc func(itemID string) []string

// Bus holds the ordered handler lists for every phase. The zero value is
// ready to use.
type Bus struct {
	mu sync.Mutex

	beforeJob                               []StageHandler
	beforeUpdateDatabaseFromSourceFiles      []StageHandler
	beforeUpdateDatabaseFromTSFile           []StageHandler
	beforeGenerateTSFiles                    []StageHandler
	beforeGenerateLocalizedFiles             []StageHandler
	afterJob                                 []StageHandler

	rewritePath                []RewritePathFunc
	afterLoadSourceFile         []AfterLoadSourceFileFunc
	isFileOrphaned              []IsFileOrphanedFunc
	canProcessSourceFile        []CanProcessSourceFileFunc
	canExtract                  []CanExtractFunc
	canTranslate                []CanTranslateFunc
	getTranslationPre           []GetTranslationPreFunc
	getTranslation              []GetTranslationFunc
	rewriteParsedTSFileItem     []RewriteParsedTSFileItemFunc
	rewriteTranslation          []RewriteTranslationFunc
	addDevComment               []AddDevCommentFunc
}

// New returns an empty hook bus.
func New() *Bus {
	return &Bus{}
}

func (b *Bus) OnBeforeJob(h StageHandler) { b.mu.Lock(); b.beforeJob = append(b.beforeJob, h); b.mu.Unlock() }
func (b *Bus) OnBeforeUpdateDatabaseFromSourceFiles(h StageHandler) {
	b.mu.Lock()
	b.beforeUpdateDatabaseFromSourceFiles = append(b.beforeUpdateDatabaseFromSourceFiles, h)
	b.mu.Unlock()
}
func (b *Bus) OnBeforeUpdateDatabaseFromTSFile(h StageHandler) {
	b.mu.Lock()
	b.beforeUpdateDatabaseFromTSFile = append(b.beforeUpdateDatabaseFromTSFile, h)
	b.mu.Unlock()
}
func (b *Bus) OnBeforeGenerateTSFiles(h StageHandler) {
	b.mu.Lock()
	b.beforeGenerateTSFiles = append(b.beforeGenerateTSFiles, h)
	b.mu.Unlock()
}
func (b *Bus) OnBeforeGenerateLocalizedFiles(h StageHandler) {
	b.mu.Lock()
	b.beforeGenerateLocalizedFiles = append(b.beforeGenerateLocalizedFiles, h)
	b.mu.Unlock()
}
func (b *Bus) OnAfterJob(h StageHandler) { b.mu.Lock(); b.afterJob = append(b.afterJob, h); b.mu.Unlock() }

func (b *Bus) OnRewritePath(h RewritePathFunc) {
	b.mu.Lock()
	b.rewritePath = append(b.rewritePath, h)
	b.mu.Unlock()
}
func (b *Bus) OnAfterLoadSourceFile(h AfterLoadSourceFileFunc) {
	b.mu.Lock()
	b.afterLoadSourceFile = append(b.afterLoadSourceFile, h)
	b.mu.Unlock()
}
func (b *Bus) OnIsFileOrphaned(h IsFileOrphanedFunc) {
	b.mu.Lock()
	b.isFileOrphaned = append(b.isFileOrphaned, h)
	b.mu.Unlock()
}
func (b *Bus) OnCanProcessSourceFile(h CanProcessSourceFileFunc) {
	b.mu.Lock()
	b.canProcessSourceFile = append(b.canProcessSourceFile, h)
	b.mu.Unlock()
}
func (b *Bus) OnCanExtract(h CanExtractFunc) {
	b.mu.Lock()
	b.canExtract = append(b.canExtract, h)
	b.mu.Unlock()
}
func (b *Bus) OnCanTranslate(h CanTranslateFunc) {
	b.mu.Lock()
	b.canTranslate = append(b.canTranslate, h)
	b.mu.Unlock()
}
func (b *Bus) OnGetTranslationPre(h GetTranslationPreFunc) {
	b.mu.Lock()
	b.getTranslationPre = append(b.getTranslationPre, h)
	b.mu.Unlock()
}
func (b *Bus) OnGetTranslation(h GetTranslationFunc) {
	b.mu.Lock()
	b.getTranslation = append(b.getTranslation, h)
	b.mu.Unlock()
}
func (b *Bus) OnRewriteParsedTSFileItem(h RewriteParsedTSFileItemFunc) {
	b.mu.Lock()
	b.rewriteParsedTSFileItem = append(b.rewriteParsedTSFileItem, h)
	b.mu.Unlock()
}
func (b *Bus) OnRewriteTranslation(h RewriteTranslationFunc) {
	b.mu.Lock()
	b.rewriteTranslation = append(b.rewriteTranslation, h)
	b.mu.Unlock()
}
func (b *Bus) OnAddDevComment(h AddDevCommentFunc) {
	b.mu.Lock()
	b.addDevComment = append(b.addDevComment, h)
	b.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Firing
// ---------------------------------------------------------------------------

func fireStage(handlers []StageHandler, ctx *StageContext) error {
	for _, h := range handlers {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bus) FireBeforeJob(ctx *StageContext) error {
	return fireStage(b.beforeJob, ctx)
}
func (b *Bus) FireBeforeUpdateDatabaseFromSourceFiles(ctx *StageContext) error {
	return fireStage(b.beforeUpdateDatabaseFromSourceFiles, ctx)
}
func (b *Bus) FireBeforeUpdateDatabaseFromTSFile(ctx *StageContext) error {
	return fireStage(b.beforeUpdateDatabaseFromTSFile, ctx)
}
func (b *Bus) FireBeforeGenerateTSFiles(ctx *StageContext) error {
	return fireStage(b.beforeGenerateTSFiles, ctx)
}
func (b *Bus) FireBeforeGenerateLocalizedFiles(ctx *StageContext) error {
	return fireStage(b.beforeGenerateLocalizedFiles, ctx)
}
func (b *Bus) FireAfterJob(ctx *StageContext) error {
	return fireStage(b.afterJob, ctx)
}

// FireRewritePath runs the rewrite_path chain and returns the final path.
func (b *Bus) FireRewritePath(relPath string) string {
	for _, h := range b.rewritePath {
		h(&relPath)
	}
	return relPath
}

// FireAfterLoadSourceFile runs the combine_and veto chain, returning the
// (possibly rewritten) text and whether every handler allowed the file.
func (b *Bus) FireAfterLoadSourceFile(path, text string) (string, bool) {
	ok := true
	for _, h := range b.afterLoadSourceFile {
		if !h(path, &text) {
			ok = false
		}
	}
	return text, ok
}

// FireIsFileOrphaned is combine_or: any handler saying true wins.
func (b *Bus) FireIsFileOrphaned(relPath string) bool {
	for _, h := range b.isFileOrphaned {
		if h(relPath) {
			return true
		}
	}
	return false
}

// FireCanProcessSourceFile is combine_and: every handler must agree.
func (b *Bus) FireCanProcessSourceFile(relPath string) bool {
	for _, h := range b.canProcessSourceFile {
		if !h(relPath) {
			return false
		}
	}
	return true
}

// FireCanExtract is combine_and over the mutable ExtractedString.
func (b *Bus) FireCanExtract(s *ExtractedString) bool {
	for _, h := range b.canExtract {
		if !h(s) {
			return false
		}
	}
	return true
}

// FireCanTranslate is combine_and over the mutable translation pointer.
func (b *Bus) FireCanTranslate(itemID, lang string, translation *string) bool {
	for _, h := range b.canTranslate {
		if !h(itemID, lang, translation) {
			return false
		}
	}
	return true
}

// FireGetTranslationPre returns the first handler's non-empty result.
func (b *Bus) FireGetTranslationPre(itemID, lang string) (string, bool) {
	for _, h := range b.getTranslationPre {
		if s, ok := h(itemID, lang); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// FireGetTranslation returns the first handler's non-empty result.
func (b *Bus) FireGetTranslation(itemID, lang string) (string, bool) {
	for _, h := range b.getTranslation {
		if s, ok := h(itemID, lang); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// FireRewriteParsedTSFileItem runs every handler against p in order.
func (b *Bus) FireRewriteParsedTSFileItem(p *TSFileItemParams) {
	for _, h := range b.rewriteParsedTSFileItem {
		h(p)
	}
}

// FireRewriteTranslation runs the rewrite chain and reports whether the
// value changed, so the caller knows to re-apply NFC normalization.
func (b *Bus) FireRewriteTranslation(translation *string) bool {
	before := *translation
	for _, h := range b.rewriteTranslation {
		h(translation)
	}
	return *translation != before
}

// FireAddDevComment collects every handler's contributed comment lines.
func (b *Bus) FireAddDevComment(itemID string) []string {
	var out []string
	for _, h := range b.addDevComment {
		out = append(out, h(itemID)...)
	}
	return out
}
