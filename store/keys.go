package store

import "fmt"

// Property keys are modeled as typed accessors rather than raw string
// concatenation scattered through the engine (per the key-family design
// note: source:, hash:, items:, ts:, usn:, target:, target:mtime:,
// source:, source:ts:, size:, job-hash:, job-engine:, job-plugin:).

// SourceHashKey is the normalized-content hash of a file at last parse.
func SourceHashKey(fileID string) string {
	return "source:" + fileID
}

// FileHashKey is the normalized content hash of a file at last parse,
// recorded under its own key family so rename detection can read it for an
// orphaned file independent of SourceHashKey's fast-path-skip semantics.
func FileHashKey(fileID string) string {
	return "hash:" + fileID
}

// ItemsKey stores the ordered, comma-separated Item IDs for a file.
func ItemsKey(fileID string) string {
	return "items:" + fileID
}

// SizeKey stores the byte length of a file's normalized text, used to
// bucket rename candidates.
func SizeKey(fileID string) string {
	return "size:" + fileID
}

// TSHashKey is the MD5 of a TS file's text, for a given file and language.
func TSHashKey(fileID, lang string) string {
	return fmt.Sprintf("ts:%s:%s", fileID, lang)
}

// TSCountKey is the number of entries written to a TS file.
func TSCountKey(fileID, lang string) string {
	return fmt.Sprintf("ts:%s:%s:count", fileID, lang)
}

// USNKey records the USN a TS file was last regenerated at, for
// (file, lang).
func USNKey(fileID, lang string) string {
	return fmt.Sprintf("usn:%s:%s", fileID, lang)
}

// TargetHashKey is the content hash of the last-written localized output,
// job-ID qualified (a namespace may share files across jobs).
func TargetHashKey(fileID, jobID, lang string) string {
	return fmt.Sprintf("target:%s:%s:%s", fileID, jobID, lang)
}

// TargetMtimeKey is the mtime observed right after writing the localized
// output, used to detect external modification on the next run.
func TargetMtimeKey(fileID, jobID, lang string) string {
	return fmt.Sprintf("target:mtime:%s:%s:%s", fileID, jobID, lang)
}

// SourceTargetKey mirrors SourceHashKey but job/lang qualified, recorded
// alongside a localized output so its gate can detect a source change
// independent of the file's own (non-job-qualified) SourceHashKey.
//
// This key family is intentionally asymmetric with SourceHashKey (which is
// NOT job-qualified): removing the asymmetry would invalidate existing
// stores built against the un-qualified source key. Preserved as-is.
func SourceTargetKey(fileID, jobID, lang string) string {
	return fmt.Sprintf("source:%s:%s:%s", fileID, jobID, lang)
}

// SourceTSTargetKey is the TS-hash counterpart of SourceTargetKey.
func SourceTSTargetKey(fileID, jobID, lang string) string {
	return fmt.Sprintf("source:ts:%s:%s:%s", fileID, jobID, lang)
}

// JobHashKey, JobEngineKey and JobPluginKey store the three fingerprint
// components compared at job prelude.
func JobHashKey(namespace, jobID string) string {
	return fmt.Sprintf("job-hash:%s:%s", namespace, jobID)
}

func JobEngineKey(namespace, jobID string) string {
	return fmt.Sprintf("job-engine:%s:%s", namespace, jobID)
}

func JobPluginKey(namespace, jobID string) string {
	return fmt.Sprintf("job-plugin:%s:%s", namespace, jobID)
}
