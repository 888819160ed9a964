// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// Stats prints, as one JSON record, the number of Go source and test files
// per package directory and the word count of the Markdown docs.
func Stats() error {
	type pkgStats struct {
		Files int `json:"files"`
		Tests int `json:"tests"`
	}
	pkgs := map[string]*pkgStats{}

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == binDir || name == "magefiles") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		dir := filepath.Dir(path)
		if pkgs[dir] == nil {
			pkgs[dir] = &pkgStats{}
		}
		if strings.HasSuffix(path, "_test.go") {
			pkgs[dir].Tests++
		} else {
			pkgs[dir].Files++
		}
		return nil
	})
	if err != nil {
		return err
	}

	docs, err := filepath.Glob("*.md")
	if err != nil {
		return err
	}
	sort.Strings(docs)
	words := map[string]int{}
	for _, path := range docs {
		n, err := countWordsInFile(path)
		if err != nil {
			continue
		}
		words[path] = n
	}

	line, err := json.Marshal(map[string]any{"packages": pkgs, "doc_words": words})
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countWordsInFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	count := 0
	inWord := false
	for _, r := range string(data) {
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count, nil
}
