// Package cache provides translation caching implementations.
package cache

import "github.com/ZaguanLabs/glossia"

// TranslationCache is an alias to the main package interface for
// convenience. Keys are produced by glossia.TranslationKey, so a cached
// entry is only ever reused for the same chunk text, language pair and
// prompt-shaping parameters.
type TranslationCache = glossia.TranslationCache
