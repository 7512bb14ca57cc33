package retrieval

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nidhogg/gym-advisor/internal/catalog"
	"github.com/nidhogg/gym-advisor/internal/tfidf"
	"go.uber.org/zap"
)

// LoadDir reads every .txt and .md file under dir into a document, one
// document per file, ordered by filename. A missing directory yields an
// empty corpus rather than an error.
func LoadDir(dir string) ([]tfidf.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read docs dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".txt" || ext == ".md" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var docs []tfidf.Document
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read doc %s: %w", name, err)
		}
		text := strings.TrimSpace(string(data))
		if text == "" {
			continue
		}
		docs = append(docs, tfidf.Document{
			ID:     strings.TrimSuffix(name, filepath.Ext(name)),
			Text:   text,
			Source: name,
		})
	}
	return docs, nil
}

// FromCatalog renders each exercise into a searchable document so catalog
// knowledge is retrievable alongside the authored notes.
func FromCatalog(cat *catalog.Catalog) []tfidf.Document {
	var docs []tfidf.Document
	for _, ex := range cat.Exercises {
		var b strings.Builder
		b.WriteString(ex.Name)
		b.WriteString(". Movement: ")
		b.WriteString(ex.Movement)
		b.WriteString(". Difficulty: ")
		b.WriteString(string(ex.Difficulty))
		if len(ex.MusclesPrimary) > 0 {
			b.WriteString(". Primary muscles: ")
			b.WriteString(strings.Join(ex.MusclesPrimary, ", "))
		}
		if len(ex.MusclesSecondary) > 0 {
			b.WriteString(". Secondary muscles: ")
			b.WriteString(strings.Join(ex.MusclesSecondary, ", "))
		}
		if len(ex.Equipment) > 0 {
			b.WriteString(". Equipment: ")
			b.WriteString(strings.Join(ex.Equipment, ", "))
		}
		if len(ex.Tags) > 0 {
			b.WriteString(". Tags: ")
			b.WriteString(strings.Join(ex.Tags, ", "))
		}
		if len(ex.Contraindications) > 0 {
			b.WriteString(". Contraindications: ")
			b.WriteString(strings.Join(ex.Contraindications, ", "))
		}
		docs = append(docs, tfidf.Document{
			ID:     "exercise:" + ex.ID,
			Text:   b.String(),
			Source: "catalog",
		})
	}
	return docs
}

// CollectDocuments assembles the full corpus: authored notes from docsDir
// plus one document per catalog exercise. Either source may be absent.
func CollectDocuments(docsDir, catalogPath string, logger *zap.Logger) ([]tfidf.Document, error) {
	docs, err := LoadDir(docsDir)
	if err != nil {
		return nil, err
	}

	if catalogPath != "" {
		cat, err := catalog.LoadCatalog(catalogPath)
		if err != nil {
			logger.Warn("catalog unavailable for indexing", zap.String("path", catalogPath), zap.Error(err))
		} else {
			docs = append(docs, FromCatalog(cat)...)
		}
	}
	return docs, nil
}
