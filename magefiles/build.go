// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

//go:build mage

// Package main holds the Mage targets of the brep project.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo    = "go"
	binDir   = "bin"
	brepName = "brep"
	brepPkg  = "./cmd/brep"
)

var brepBin = filepath.Join(binDir, brepName)

func mkBinDir() error {
	return os.MkdirAll(binDir, 0o755)
}

// Build compiles bin/brep with paths trimmed from the binary.
func Build() error {
	mg.Deps(mkBinDir)
	return sh.RunV(binGo, "build", "-trimpath", "-o", brepBin, brepPkg)
}

// Install installs brep into GOBIN.
func Install() error {
	return sh.RunV(binGo, "install", "-trimpath", brepPkg)
}

// Clean removes bin/ and the go build cache entries of this module.
func Clean() error {
	if err := os.RemoveAll(binDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Smoke builds brep and runs init, demo and check against a throwaway
// config and data directory.
func Smoke() error {
	mg.Deps(Build)
	dir, err := os.MkdirTemp("", "brep-smoke-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	run := func(args ...string) error {
		full := append([]string{
			"--config-dir", filepath.Join(dir, "config"),
			"--data-dir", filepath.Join(dir, "data"),
		}, args...)
		return sh.RunV(brepBin, full...)
	}
	for _, args := range [][]string{{"init"}, {"demo", "smoke"}, {"stats", "smoke"}, {"check", "smoke"}} {
		if err := run(args...); err != nil {
			return fmt.Errorf("brep %v: %w", args, err)
		}
	}
	return nil
}
