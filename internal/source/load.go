package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML map document. Layer data_file paths are resolved
// relative to the document and their contents moved into Data.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map document %s: %w", path, err)
	}
	doc, err := Parse(raw, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML map document. dir is the base for data_file paths.
func Parse(raw []byte, dir string) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse map document: %w", err)
	}
	if doc.Name == "" {
		return nil, errors.New("parse map document: missing name")
	}
	for i := range doc.Layers {
		l := &doc.Layers[i]
		if l.DataFile == "" {
			continue
		}
		if len(l.Data) > 0 {
			return nil, fmt.Errorf("layer %s: both data and data_file set", l.Name)
		}
		data, err := loadDataFile(dir, l.DataFile)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		l.Data = data
		l.DataFile = ""
	}
	return &doc, nil
}

func loadDataFile(dir, name string) (Indices, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, name)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tile data: %w", err)
	}
	defer f.Close()
	data, err := ParseCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// LoadDir loads the named documents from dir. With no names, every *.yaml
// and *.yml file in dir is loaded in lexical order.
func LoadDir(dir string, names []string) ([]*Document, error) {
	if len(names) == 0 {
		for _, pattern := range []string{"*.yaml", "*.yml"} {
			matches, err := filepath.Glob(filepath.Join(dir, pattern))
			if err != nil {
				return nil, fmt.Errorf("list map documents: %w", err)
			}
			for _, m := range matches {
				names = append(names, filepath.Base(m))
			}
		}
		slices.Sort(names)
	}

	docs := make([]*Document, 0, len(names))
	for _, name := range names {
		doc, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
