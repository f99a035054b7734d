package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/minios-linux/locasync/store/migrations"
)

// Store is the cached persistence layer: identity maps per entity kind
// sit in front of a single SQL transaction that is held for the lifetime
// of one job and committed once at the end.
//
// The identity maps mirror the cache key families named in the design
// notes ("string:", "item:", "file:", "translation:", "property:",
// "all_items:", "all_files:", "lang:"): each is a plain mutex-guarded map,
// following lockfile.LockFile's map-of-maps-behind-a-mutex idiom rather
// than reaching for a generic LRU/cache library the pack never uses for
// this kind of job-scoped identity cache.
type Store struct {
	db *sql.DB
	tx *sql.Tx

	mu sync.Mutex

	stringsByKey map[string]*String // "string:" text\x00context -> String
	stringsByID  map[string]*String

	filesByKey map[string]*File // "file:" namespace\x00job\x00relpath -> File
	filesByID  map[string]*File

	itemsByKey map[string]*Item // "item:" file_id\x00string_id -> Item
	itemsByID  map[string]*Item

	translationsByKey map[string]*Translation // "translation:" item_id\x00lang -> Translation
	translationsByID  map[string]*Translation

	properties map[string]string // "property:" preloaded once per connection

	allItemsForFile map[string][]*Item // "all_items:" file_id -> ordered items
	allFilesForJob  map[string][]*File // "all_files:" namespace\x00job -> files

	langExistence map[string]map[string]bool // "lang:" lang -> set of md5(text) / md5(text\x00ctx)

	usnSeq int64
}

// Open opens (creating if necessary) a SQLite-backed store at path,
// applies pending migrations, preloads the property cache, and begins the
// transaction that will be held for the whole job: the store handle is
// held for the entire run, wrapping a DB transaction that is committed
// once at job end.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening store %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // single-threaded job, one sqlite connection

	if err := migrations.Up(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating store %s: %w", path, err)
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("starting transaction: %w", err)
	}

	s := &Store{
		db: db,
		tx: tx,

		stringsByKey:      make(map[string]*String),
		stringsByID:       make(map[string]*String),
		filesByKey:        make(map[string]*File),
		filesByID:         make(map[string]*File),
		itemsByKey:        make(map[string]*Item),
		itemsByID:         make(map[string]*Item),
		translationsByKey: make(map[string]*Translation),
		translationsByID:  make(map[string]*Translation),
		properties:        make(map[string]string),
		allItemsForFile:   make(map[string][]*Item),
		allFilesForJob:    make(map[string][]*File),
		langExistence:     make(map[string]map[string]bool),
	}

	if err := s.preloadProperties(); err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}
	if err := s.loadUSNSeq(); err != nil {
		tx.Rollback()
		db.Close()
		return nil, err
	}

	return s, nil
}

// Commit persists the job's transaction. After Commit the Store must not
// be used again.
func (s *Store) Commit() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Commit()
	s.tx = nil
	return err
}

// Abort discards the job's transaction: on fatal exit, the in-progress
// store transaction is not committed and partial changes are discarded.
func (s *Store) Abort() error {
	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

// Close releases the underlying database connection. If the transaction
// was never committed or aborted, it is rolled back.
func (s *Store) Close() error {
	if s.tx != nil {
		s.tx.Rollback()
		s.tx = nil
	}
	return s.db.Close()
}

func mapKey(parts ...string) string {
	return strings.Join(parts, "\x00")
}

// ---------------------------------------------------------------------------
// USN sequence
// ---------------------------------------------------------------------------

func (s *Store) loadUSNSeq() error {
	row := s.tx.QueryRow(`SELECT value FROM usn_sequence WHERE id = 1`)
	var v int64
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("loading usn sequence: %w", err)
	}
	s.usnSeq = v
	return nil
}

// nextUSN returns the next monotone update sequence number and persists
// the counter. Callers assign the result to the Item/Translation row being
// written.
func (s *Store) nextUSN() (int64, error) {
	s.usnSeq++
	if _, err := s.tx.Exec(`UPDATE usn_sequence SET value = ? WHERE id = 1`, s.usnSeq); err != nil {
		return 0, fmt.Errorf("advancing usn sequence: %w", err)
	}
	return s.usnSeq, nil
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func (s *Store) preloadProperties() error {
	rows, err := s.tx.Query(`SELECT key, value FROM properties`)
	if err != nil {
		return fmt.Errorf("preloading properties: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return fmt.Errorf("scanning property row: %w", err)
		}
		s.properties[k] = v
	}
	return rows.Err()
}

// Property returns a property's value and whether it was set.
func (s *Store) Property(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.properties[key]
	return v, ok
}

// SetProperty upserts a property and updates the cache.
func (s *Store) SetProperty(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.tx.Exec(`
		INSERT INTO properties (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("setting property %s: %w", key, err)
	}
	s.properties[key] = value
	return nil
}

// PropertyInt parses a property as an integer, returning 0 if unset or
// unparsable.
func (s *Store) PropertyInt(key string) int64 {
	v, ok := s.Property(key)
	if !ok {
		return 0
	}
	n, _ := strconv.ParseInt(v, 10, 64)
	return n
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// GetStringID resolves (text, context) to a String ID, creating it unless
// nocreate is set. Returns ("", nil) if nocreate and no match exists.
func (s *Store) GetStringID(text, context string, nocreate bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mapKey(text, context)
	if st, ok := s.stringsByKey[key]; ok {
		return st.ID, nil
	}

	row := s.tx.QueryRow(`SELECT id, skip FROM strings WHERE text = ? AND context = ?`, text, context)
	var id string
	var skip bool
	if err := row.Scan(&id, &skip); err == nil {
		st := &String{ID: id, Text: text, Context: context, Skip: skip}
		s.stringsByKey[key] = st
		s.stringsByID[id] = st
		return id, nil
	} else if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up string: %w", err)
	}

	if nocreate {
		return "", nil
	}

	id = uuid.New().String()
	if _, err := s.tx.Exec(`INSERT INTO strings (id, text, context, skip) VALUES (?, ?, ?, 0)`, id, text, context); err != nil {
		return "", fmt.Errorf("creating string: %w", err)
	}
	st := &String{ID: id, Text: text, Context: context}
	s.stringsByKey[key] = st
	s.stringsByID[id] = st
	return id, nil
}

// GetString returns a cached String by ID, loading it from the DB if
// necessary.
func (s *Store) GetString(id string) (*String, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st, ok := s.stringsByID[id]; ok {
		return st, nil
	}
	row := s.tx.QueryRow(`SELECT id, text, context, skip FROM strings WHERE id = ?`, id)
	st := &String{}
	if err := row.Scan(&st.ID, &st.Text, &st.Context, &st.Skip); err != nil {
		return nil, fmt.Errorf("loading string %s: %w", id, err)
	}
	s.stringsByID[id] = st
	s.stringsByKey[mapKey(st.Text, st.Context)] = st
	return st, nil
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

// GetFileID resolves (namespace, jobID, relPath) to a File ID, creating it
// unless nocreate is set.
func (s *Store) GetFileID(namespace, jobID, relPath string, nocreate bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mapKey(namespace, jobID, relPath)
	if f, ok := s.filesByKey[key]; ok {
		return f.ID, nil
	}

	row := s.tx.QueryRow(`SELECT id, orphaned FROM files WHERE namespace = ? AND job_id = ? AND rel_path = ?`, namespace, jobID, relPath)
	var id string
	var orphaned bool
	if err := row.Scan(&id, &orphaned); err == nil {
		f := &File{ID: id, Namespace: namespace, JobID: jobID, RelPath: relPath, Orphaned: orphaned}
		s.filesByKey[key] = f
		s.filesByID[id] = f
		return id, nil
	} else if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up file: %w", err)
	}

	if nocreate {
		return "", nil
	}

	id = uuid.New().String()
	if _, err := s.tx.Exec(`INSERT INTO files (id, namespace, job_id, rel_path, orphaned) VALUES (?, ?, ?, ?, 0)`,
		id, namespace, jobID, relPath); err != nil {
		return "", fmt.Errorf("creating file: %w", err)
	}
	f := &File{ID: id, Namespace: namespace, JobID: jobID, RelPath: relPath}
	s.filesByKey[key] = f
	s.filesByID[id] = f
	if fs, ok := s.allFilesForJob[mapKey(namespace, jobID)]; ok {
		s.allFilesForJob[mapKey(namespace, jobID)] = append(fs, f)
	}
	return id, nil
}

// GetFile returns a cached File by ID.
func (s *Store) GetFile(id string) (*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.filesByID[id]; ok {
		return f, nil
	}
	row := s.tx.QueryRow(`SELECT id, namespace, job_id, rel_path, orphaned FROM files WHERE id = ?`, id)
	f := &File{}
	if err := row.Scan(&f.ID, &f.Namespace, &f.JobID, &f.RelPath, &f.Orphaned); err != nil {
		return nil, fmt.Errorf("loading file %s: %w", id, err)
	}
	s.filesByID[id] = f
	s.filesByKey[mapKey(f.Namespace, f.JobID, f.RelPath)] = f
	return f, nil
}

// SetFileOrphaned updates a file's orphaned flag.
func (s *Store) SetFileOrphaned(id string, orphaned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tx.Exec(`UPDATE files SET orphaned = ? WHERE id = ?`, orphaned, id); err != nil {
		return fmt.Errorf("updating file orphaned flag: %w", err)
	}
	if f, ok := s.filesByID[id]; ok {
		f.Orphaned = orphaned
	}
	return nil
}

// RenameFile updates a File's relative path (used by rename-by-hash
// detection) and its identity-map keys.
func (s *Store) RenameFile(id, newRelPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.filesByID[id]
	if !ok {
		row := s.tx.QueryRow(`SELECT id, namespace, job_id, rel_path, orphaned FROM files WHERE id = ?`, id)
		f = &File{}
		if err := row.Scan(&f.ID, &f.Namespace, &f.JobID, &f.RelPath, &f.Orphaned); err != nil {
			return fmt.Errorf("loading file %s: %w", id, err)
		}
	}

	oldKey := mapKey(f.Namespace, f.JobID, f.RelPath)
	if _, err := s.tx.Exec(`UPDATE files SET rel_path = ? WHERE id = ?`, newRelPath, id); err != nil {
		return fmt.Errorf("renaming file: %w", err)
	}
	delete(s.filesByKey, oldKey)
	f.RelPath = newRelPath
	s.filesByID[id] = f
	s.filesByKey[mapKey(f.Namespace, f.JobID, f.RelPath)] = f
	return nil
}

// FilesForJob returns all files known for (namespace, jobID), preloading
// and caching the result ("all_files:").
func (s *Store) FilesForJob(namespace, jobID string) ([]*File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mapKey(namespace, jobID)
	if fs, ok := s.allFilesForJob[key]; ok {
		return fs, nil
	}

	rows, err := s.tx.Query(`SELECT id, rel_path, orphaned FROM files WHERE namespace = ? AND job_id = ?`, namespace, jobID)
	if err != nil {
		return nil, fmt.Errorf("listing files for job: %w", err)
	}
	defer rows.Close()

	var result []*File
	for rows.Next() {
		f := &File{Namespace: namespace, JobID: jobID}
		if err := rows.Scan(&f.ID, &f.RelPath, &f.Orphaned); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		s.filesByID[f.ID] = f
		s.filesByKey[mapKey(namespace, jobID, f.RelPath)] = f
		result = append(result, f)
	}
	s.allFilesForJob[key] = result
	return result, rows.Err()
}

// ---------------------------------------------------------------------------
// Items
// ---------------------------------------------------------------------------

// GetItemID resolves (fileID, stringID) to an Item ID, creating it unless
// nocreate is set. Creation bumps the item's USN.
func (s *Store) GetItemID(fileID, stringID string, nocreate bool) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := mapKey(fileID, stringID)
	if it, ok := s.itemsByKey[key]; ok {
		return it.ID, nil
	}

	row := s.tx.QueryRow(`SELECT id, hint, comment, orphaned, usn FROM items WHERE file_id = ? AND string_id = ?`, fileID, stringID)
	it := &Item{FileID: fileID, StringID: stringID}
	if err := row.Scan(&it.ID, &it.Hint, &it.Comment, &it.Orphaned, &it.USN); err == nil {
		s.itemsByKey[key] = it
		s.itemsByID[it.ID] = it
		return it.ID, nil
	} else if err != sql.ErrNoRows {
		return "", fmt.Errorf("looking up item: %w", err)
	}

	if nocreate {
		return "", nil
	}

	s.mu.Unlock()
	usn, err := s.nextUSN()
	s.mu.Lock()
	if err != nil {
		return "", err
	}

	it.ID = uuid.New().String()
	it.USN = usn
	if _, err := s.tx.Exec(`INSERT INTO items (id, file_id, string_id, hint, comment, orphaned, usn) VALUES (?, ?, ?, '', '', 0, ?)`,
		it.ID, fileID, stringID, usn); err != nil {
		return "", fmt.Errorf("creating item: %w", err)
	}
	s.itemsByKey[key] = it
	s.itemsByID[it.ID] = it
	return it.ID, nil
}

// GetItem returns a cached Item by ID.
func (s *Store) GetItem(id string) (*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if it, ok := s.itemsByID[id]; ok {
		return it, nil
	}
	row := s.tx.QueryRow(`SELECT id, file_id, string_id, hint, comment, orphaned, usn FROM items WHERE id = ?`, id)
	it := &Item{}
	if err := row.Scan(&it.ID, &it.FileID, &it.StringID, &it.Hint, &it.Comment, &it.Orphaned, &it.USN); err != nil {
		return nil, fmt.Errorf("loading item %s: %w", id, err)
	}
	s.itemsByID[id] = it
	s.itemsByKey[mapKey(it.FileID, it.StringID)] = it
	return it, nil
}

// SetItemHint updates an Item's hint if it differs, bumping its USN.
func (s *Store) SetItemHint(id, hint string) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	if it.Hint == hint {
		return nil
	}
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tx.Exec(`UPDATE items SET hint = ?, usn = ? WHERE id = ?`, hint, usn, id); err != nil {
		return fmt.Errorf("updating item hint: %w", err)
	}
	it.Hint = hint
	it.USN = usn
	return nil
}

// SetItemComment updates an Item's comment (set by
// rewrite_parsed_ts_file_item), bumping its USN if it changed.
func (s *Store) SetItemComment(id, comment string) error {
	it, err := s.GetItem(id)
	if err != nil {
		return err
	}
	if it.Comment == comment {
		return nil
	}
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tx.Exec(`UPDATE items SET comment = ?, usn = ? WHERE id = ?`, comment, usn, id); err != nil {
		return fmt.Errorf("updating item comment: %w", err)
	}
	it.Comment = comment
	it.USN = usn
	return nil
}

// SetItemOrphaned updates an Item's orphaned flag.
func (s *Store) SetItemOrphaned(id string, orphaned bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tx.Exec(`UPDATE items SET orphaned = ? WHERE id = ?`, orphaned, id); err != nil {
		return fmt.Errorf("updating item orphaned flag: %w", err)
	}
	if it, ok := s.itemsByID[id]; ok {
		it.Orphaned = orphaned
	}
	return nil
}

// ItemsForFile returns all items for a file, in unspecified order,
// preloading and caching the result ("all_items:"). This is used for
// orphan reconciliation, where order doesn't matter; emission instead
// reads the file's "items:" property for the stored, author-order list.
func (s *Store) ItemsForFile(fileID string) ([]*Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if items, ok := s.allItemsForFile[fileID]; ok {
		return items, nil
	}

	rows, err := s.tx.Query(`SELECT id, string_id, hint, comment, orphaned, usn FROM items WHERE file_id = ?`, fileID)
	if err != nil {
		return nil, fmt.Errorf("listing items for file: %w", err)
	}
	defer rows.Close()

	var result []*Item
	for rows.Next() {
		it := &Item{FileID: fileID}
		if err := rows.Scan(&it.ID, &it.StringID, &it.Hint, &it.Comment, &it.Orphaned, &it.USN); err != nil {
			return nil, fmt.Errorf("scanning item row: %w", err)
		}
		s.itemsByID[it.ID] = it
		s.itemsByKey[mapKey(fileID, it.StringID)] = it
		result = append(result, it)
	}
	s.allItemsForFile[fileID] = result
	return result, rows.Err()
}

// ---------------------------------------------------------------------------
// Translations
// ---------------------------------------------------------------------------

// GetTranslation returns the Translation for (itemID, lang), if any.
func (s *Store) GetTranslation(itemID, lang string) (*Translation, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getTranslationLocked(itemID, lang)
}

func (s *Store) getTranslationLocked(itemID, lang string) (*Translation, bool, error) {
	key := mapKey(itemID, lang)
	if t, ok := s.translationsByKey[key]; ok {
		return t, true, nil
	}

	row := s.tx.QueryRow(`SELECT id, string, fuzzy, comment, merge, usn FROM translations WHERE item_id = ? AND language = ?`, itemID, lang)
	t := &Translation{ItemID: itemID, Language: lang}
	if err := row.Scan(&t.ID, &t.String, &t.Fuzzy, &t.Comment, &t.Merge, &t.USN); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("looking up translation: %w", err)
	}
	s.translationsByKey[key] = t
	s.translationsByID[t.ID] = t
	return t, true, nil
}

// UpsertTranslation creates or updates the Translation for (itemID, lang),
// always bumping its USN: after any write to a translation for
// (file, lang), highest_usn_for_file_lang must strictly increase.
// Callers are expected to skip the call entirely when the incoming
// content is identical to what's stored, so a true no-op doesn't bump it.
func (s *Store) UpsertTranslation(itemID, lang, text string, fuzzy bool, comment string) (*Translation, error) {
	usn, err := s.nextUSN()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok, err := s.getTranslationLocked(itemID, lang)
	if err != nil {
		return nil, err
	}

	if ok {
		if _, err := s.tx.Exec(`UPDATE translations SET string = ?, fuzzy = ?, comment = ?, merge = 0, usn = ? WHERE id = ?`,
			text, fuzzy, comment, usn, existing.ID); err != nil {
			return nil, fmt.Errorf("updating translation: %w", err)
		}
		existing.String = text
		existing.Fuzzy = fuzzy
		existing.Comment = comment
		existing.Merge = false
		existing.USN = usn
		return existing, nil
	}

	id := uuid.New().String()
	if _, err := s.tx.Exec(`INSERT INTO translations (id, item_id, language, string, fuzzy, comment, merge, usn) VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		id, itemID, lang, text, fuzzy, comment, usn); err != nil {
		return nil, fmt.Errorf("creating translation: %w", err)
	}
	t := &Translation{ID: id, ItemID: itemID, Language: lang, String: text, Fuzzy: fuzzy, Comment: comment, USN: usn}
	s.translationsByKey[mapKey(itemID, lang)] = t
	s.translationsByID[id] = t
	return t, nil
}

// ClearTranslationMerge clears the one-shot "ignore incoming update"
// merge flag, bumping USN since it is itself a row write.
func (s *Store) ClearTranslationMerge(itemID, lang string) error {
	t, ok, err := s.GetTranslation(itemID, lang)
	if err != nil || !ok {
		return err
	}
	usn, err := s.nextUSN()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.tx.Exec(`UPDATE translations SET merge = 0, usn = ? WHERE id = ?`, usn, t.ID); err != nil {
		return fmt.Errorf("clearing translation merge flag: %w", err)
	}
	t.Merge = false
	t.USN = usn
	return nil
}

// HighestUSNForFileLang returns the maximum USN over all items and
// translations-for-lang of a file, the oracle TS emission gates on.
func (s *Store) HighestUSNForFileLang(fileID, lang string) (int64, error) {
	row := s.tx.QueryRow(`
		SELECT MAX(u) FROM (
			SELECT COALESCE(MAX(usn), 0) AS u FROM items WHERE file_id = ?
			UNION ALL
			SELECT COALESCE(MAX(t.usn), 0) FROM translations t
				JOIN items i ON t.item_id = i.id
				WHERE i.file_id = ? AND t.language = ?
		)
	`, fileID, fileID, lang)
	var usn int64
	if err := row.Scan(&usn); err != nil {
		return 0, fmt.Errorf("computing highest usn: %w", err)
	}
	return usn, nil
}

// ---------------------------------------------------------------------------
// Preloading
// ---------------------------------------------------------------------------

// PreloadTranslationsForJob warms the item/translation caches for every
// file of (namespace, jobID) across langs with a single join query,
// mirroring the teacher's own preload-before-bulk-work habit.
func (s *Store) PreloadTranslationsForJob(namespace, jobID string, langs []string) error {
	if len(langs) == 0 {
		return nil
	}

	placeholders := make([]string, len(langs))
	langArgs := make([]any, len(langs))
	for i, l := range langs {
		placeholders[i] = "?"
		langArgs[i] = l
	}

	query := fmt.Sprintf(`
		SELECT i.id, i.file_id, i.string_id, i.hint, i.comment, i.orphaned, i.usn,
		       t.id, t.language, t.string, t.fuzzy, t.comment, t.merge, t.usn
		FROM items i
		JOIN files f ON i.file_id = f.id
		LEFT JOIN translations t ON t.item_id = i.id AND t.language IN (%s)
		WHERE f.namespace = ? AND f.job_id = ?
	`, strings.Join(placeholders, ","))

	args := append(append([]any{}, langArgs...), namespace, jobID)

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return fmt.Errorf("preloading translations for job: %w", err)
	}
	defer rows.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	for rows.Next() {
		it := &Item{}
		var tID, tLang, tString, tComment sql.NullString
		var tFuzzy, tMerge sql.NullBool
		var tUSN sql.NullInt64
		if err := rows.Scan(&it.ID, &it.FileID, &it.StringID, &it.Hint, &it.Comment, &it.Orphaned, &it.USN,
			&tID, &tLang, &tString, &tFuzzy, &tComment, &tMerge, &tUSN); err != nil {
			return fmt.Errorf("scanning preload row: %w", err)
		}
		s.itemsByID[it.ID] = it
		s.itemsByKey[mapKey(it.FileID, it.StringID)] = it

		if tID.Valid {
			t := &Translation{
				ID:       tID.String,
				ItemID:   it.ID,
				Language: tLang.String,
				String:   tString.String,
				Fuzzy:    tFuzzy.Bool,
				Comment:  tComment.String,
				Merge:    tMerge.Bool,
				USN:      tUSN.Int64,
			}
			s.translationsByID[t.ID] = t
			s.translationsByKey[mapKey(it.ID, t.Language)] = t
		}
	}
	return rows.Err()
}

// PreloadStringsForLang builds a per-language existence set keyed by
// md5(text) and md5(text\x00context), used to short-circuit fuzzy-reuse
// lookups without a full content query per candidate.
func (s *Store) PreloadStringsForLang(lang string) error {
	rows, err := s.tx.Query(`
		SELECT s.text, s.context FROM translations t
		JOIN items i ON t.item_id = i.id
		JOIN strings s ON i.string_id = s.id
		WHERE t.language = ? AND t.string != ''
	`, lang)
	if err != nil {
		return fmt.Errorf("preloading strings for lang %s: %w", lang, err)
	}
	defer rows.Close()

	set := make(map[string]bool)
	for rows.Next() {
		var text, ctx string
		if err := rows.Scan(&text, &ctx); err != nil {
			return fmt.Errorf("scanning lang-existence row: %w", err)
		}
		set[md5Hex(text)] = true
		set[md5Hex(text+"\x00"+ctx)] = true
	}

	s.mu.Lock()
	s.langExistence[lang] = set
	s.mu.Unlock()
	return rows.Err()
}

// HasTranslationForLang reports whether PreloadStringsForLang has recorded
// an existing translation for this (text, context) in lang. Used as a
// cheap pre-filter before BestTranslation issues a content query.
func (s *Store) HasTranslationForLang(lang, text, context string) bool {
	s.mu.Lock()
	set, ok := s.langExistence[lang]
	s.mu.Unlock()
	if !ok {
		return true // not preloaded: don't short-circuit, let the caller query
	}
	return set[md5Hex(text)] || set[md5Hex(text+"\x00"+context)]
}

// ---------------------------------------------------------------------------
// Fuzzy reuse
// ---------------------------------------------------------------------------

// BestTranslation implements find_best_translation: the
// best existing non-empty translation of (text, context) in lang, drawn
// from files other than (namespace, excludeRelPath), optionally including
// orphaned files. multipleVariants is true when distinct translation
// strings exist across candidates, signalling an uncertain reuse.
func (s *Store) BestTranslation(namespace, excludeRelPath, text, context, lang string, allowOrphaned bool) (translation string, fuzzy bool, comment string, multipleVariants bool, err error) {
	query := `
		SELECT DISTINCT t.string, t.fuzzy, t.comment
		FROM translations t
		JOIN items i ON t.item_id = i.id
		JOIN strings s ON i.string_id = s.id
		JOIN files f ON i.file_id = f.id
		WHERE s.text = ? AND s.context = ? AND t.language = ? AND t.string != ''
		  AND NOT (f.namespace = ? AND f.rel_path = ?)
	`
	args := []any{text, context, lang, namespace, excludeRelPath}
	if !allowOrphaned {
		query += ` AND f.orphaned = 0`
	}
	query += ` ORDER BY t.string`

	rows, err := s.tx.Query(query, args...)
	if err != nil {
		return "", false, "", false, fmt.Errorf("finding best translation: %w", err)
	}
	defer rows.Close()

	distinct := make(map[string]bool)
	for rows.Next() {
		var str, cmt string
		var fz bool
		if err := rows.Scan(&str, &fz, &cmt); err != nil {
			return "", false, "", false, fmt.Errorf("scanning best-translation row: %w", err)
		}
		distinct[str] = true
		if translation == "" {
			translation, fuzzy, comment = str, fz, cmt
		}
	}
	if err := rows.Err(); err != nil {
		return "", false, "", false, err
	}
	return translation, fuzzy, comment, len(distinct) > 1, nil
}
