package knowledge

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/descubra-ms/guata/internal/domain"
)

//go:embed default_knowledge.yaml
var defaultKnowledge []byte

type fileEntry struct {
	ID         string    `yaml:"id"`
	Keywords   []string  `yaml:"keywords"`
	Confidence string    `yaml:"confidence"`
	Content    yaml.Node `yaml:"content"`
}

type file struct {
	Entries []fileEntry `yaml:"entries"`
}

// ObjectGetter fetches an object body from object storage.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) (io.ReadCloser, error)
}

// Parse decodes a YAML knowledge file. Entry order is preserved.
func Parse(data []byte) ([]*domain.KnowledgeEntry, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid knowledge file", err)
	}
	if len(f.Entries) == 0 {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "knowledge file has no entries")
	}

	entries := make([]*domain.KnowledgeEntry, 0, len(f.Entries))
	for _, fe := range f.Entries {
		tier, err := domain.ParseConfidenceTier(fe.Confidence)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", fe.ID, err)
		}

		var payload any
		if !fe.Content.IsZero() {
			if err := fe.Content.Decode(&payload); err != nil {
				return nil, fmt.Errorf("entry %q content: %w", fe.ID, err)
			}
		}
		entries = append(entries, domain.NewKnowledgeEntry(fe.ID, fe.Keywords, payload, tier))
	}
	return entries, nil
}

// Default returns the embedded knowledge base.
func Default() ([]*domain.KnowledgeEntry, error) {
	return Parse(defaultKnowledge)
}

// LoadFile reads entries from a local YAML file.
func LoadFile(path string) ([]*domain.KnowledgeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge file: %w", err)
	}
	return Parse(data)
}

// LoadObject reads entries from an object in storage.
func LoadObject(ctx context.Context, store ObjectGetter, key string) ([]*domain.KnowledgeEntry, error) {
	body, err := store.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch knowledge object: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read knowledge object: %w", err)
	}
	return Parse(data)
}

// Source selects where the knowledge base is loaded from. The object key
// takes precedence over the file path; with neither set the embedded
// default is used.
type Source struct {
	File      string
	ObjectKey string
	Store     ObjectGetter
}

// Load builds an Index from the configured source.
func Load(ctx context.Context, src Source, opts ...Option) (*Index, error) {
	var (
		entries []*domain.KnowledgeEntry
		err     error
	)
	switch {
	case src.ObjectKey != "" && src.Store != nil:
		entries, err = LoadObject(ctx, src.Store, src.ObjectKey)
	case src.File != "":
		entries, err = LoadFile(src.File)
	default:
		entries, err = Default()
	}
	if err != nil {
		return nil, err
	}
	return NewIndex(entries, opts...)
}
