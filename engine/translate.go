package engine

import "sort"

// resolveTranslation implements a five-step resolution order where the
// first non-empty result wins. needSave reports whether the result
// should be upserted into the store so future runs find it directly:
// true for a match reused from another file and for a value supplied by
// the get_translation hook; false for a get_translation_pre value, for a
// direct hit already stored for this item, and for a value discovered
// only via similar-language recursion.
func resolveTranslation(j *Job, itemID, lang string, disallowSimilarLang bool) (translation string, fuzzy bool, needSave bool, err error) {
	if s, ok := j.Hooks.FireGetTranslationPre(itemID, lang); ok && s != "" {
		return s, false, false, nil
	}

	it, err := j.Store.GetItem(itemID)
	if err != nil {
		return "", false, false, err
	}
	str, err := j.Store.GetString(it.StringID)
	if err != nil {
		return "", false, false, err
	}
	if str.Skip {
		return "", false, false, nil
	}

	if t, ok, err := j.Store.GetTranslation(itemID, lang); err != nil {
		return "", false, false, err
	} else if ok && t.String != "" {
		return t.String, t.Fuzzy, false, nil
	}

	if j.ReuseTranslations && j.Store.HasTranslationForLang(lang, str.Text, str.Context) {
		f, err := j.Store.GetFile(it.FileID)
		if err != nil {
			return "", false, false, err
		}
		best, bestFuzzy, _, multiple, err := j.Store.BestTranslation(j.Namespace, f.RelPath, str.Text, str.Context, lang, false)
		if err != nil {
			return "", false, false, err
		}
		if best != "" {
			if multiple && !j.ReuseUncertain {
				return "", false, false, nil
			}
			if !bestFuzzy {
				bestFuzzy = j.reuseAsFuzzy(lang)
			}
			return best, bestFuzzy, true, nil
		}
	}

	if s, ok := j.Hooks.FireGetTranslation(itemID, lang); ok && s != "" {
		return s, false, true, nil
	}

	if !disallowSimilarLang {
		rules := rulesFor(j.SimilarLanguages, lang)
		for _, rule := range rules {
			sources := append([]string{}, rule.Sources...)
			sort.Strings(sources)
			for _, src := range sources {
				s, fz, _, err := resolveTranslation(j, itemID, src, true)
				if err != nil {
					return "", false, false, err
				}
				if s != "" {
					if rule.AsFuzzy {
						fz = true
					}
					return s, fz, false, nil
				}
			}
		}
	}

	return "", false, false, nil
}

func rulesFor(rules []SimilarLanguageRule, lang string) []SimilarLanguageRule {
	var out []SimilarLanguageRule
	for _, r := range rules {
		if r.Destination == lang {
			out = append(out, r)
		}
	}
	return out
}

// applyTranslation resolves a translation and runs the can_translate
// veto/rewrite hook, upserting the result when resolution says so.
func applyTranslation(j *Job, itemID, lang string) (string, bool, error) {
	text, fuzzy, needSave, err := resolveTranslation(j, itemID, lang, false)
	if err != nil {
		return "", false, err
	}

	kept := text
	if !j.Hooks.FireCanTranslate(itemID, lang, &kept) {
		return "", false, nil
	}

	if needSave && kept != "" {
		if _, err := j.Store.UpsertTranslation(itemID, lang, kept, fuzzy, ""); err != nil {
			return "", false, err
		}
	}
	return kept, fuzzy, nil
}
