package engine

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/minios-linux/locasync/store"
)

// jobFingerprint hashes the parts of a Job's configuration that, if
// changed, invalidate every optimization that assumes "nothing relevant
// changed since last run": include/exclude patterns, destination
// languages, normalize_strings and reuse policy knobs. The engine version
// and plugin/hook set are compared separately so a fingerprint mismatch
// can be attributed to "job config changed" versus "engine or plugins
// changed".
func jobFingerprint(j *Job) string {
	h := md5.New()
	for _, group := range [][]string{j.Include, j.Exclude, j.DestLanguages} {
		parts := append([]string{}, group...)
		sort.Strings(parts)
		h.Write([]byte(strings.Join(parts, "\x00")))
		h.Write([]byte{0x01})
	}
	for _, flag := range []bool{j.NormalizeStrings, j.ReuseTranslations, j.ReuseUncertain} {
		if flag {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// checkFingerprint compares the job's current fingerprint, engine
// version, and plugin signature against the three properties recorded at
// the end of the last successful run. If any of the three differ from
// what's stored, this run is treated as a changed job: every optimization
// that assumes continuity with the prior run is disabled, but an ordinary
// incremental reconciliation against whatever is already in the store
// still happens. It returns whether optimizations may be trusted this
// run, and persists the freshly-computed fingerprint components
// unconditionally.
func checkFingerprint(j *Job) (optimizationsOK bool, err error) {
	hashKey := store.JobHashKey(j.Namespace, j.ID)
	engineKey := store.JobEngineKey(j.Namespace, j.ID)
	pluginKey := store.JobPluginKey(j.Namespace, j.ID)

	wantHash := jobFingerprint(j)
	wantEngine := j.EngineVersion
	wantPlugin := j.PluginVersion

	gotHash, hashOK := j.Store.Property(hashKey)
	gotEngine, engineOK := j.Store.Property(engineKey)
	gotPlugin, pluginOK := j.Store.Property(pluginKey)

	optimizationsOK = hashOK && engineOK && pluginOK &&
		gotHash == wantHash && gotEngine == wantEngine && gotPlugin == wantPlugin

	if j.DisableOptimizations {
		optimizationsOK = false
	}

	if err := j.Store.SetProperty(hashKey, wantHash); err != nil {
		return false, err
	}
	if err := j.Store.SetProperty(engineKey, wantEngine); err != nil {
		return false, err
	}
	if err := j.Store.SetProperty(pluginKey, wantPlugin); err != nil {
		return false, err
	}
	return optimizationsOK, nil
}
