// check_boundaries enforces the layer import rules of every service under
// contexts/. Run from the repository root: go run ./scripts/check_boundaries.go
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const rootModule = "jokemoderation"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists what a layer may import besides the standard library.
// Entries of allowLocal are relative to the service's own import path.
type layerRule struct {
	allowLocal    []string
	allowExternal []string
	forbidInfix   []string
}

var layerRules = map[string]layerRule{
	"domain": {
		allowLocal:  []string{"domain"},
		forbidInfix: []string{"/adapters/", "/internal/"},
	},
	"ports": {
		allowLocal:    []string{"domain"},
		allowExternal: []string{rootModule + "/internal/shared"},
		forbidInfix:   []string{"/adapters/", "/internal/platform/"},
	},
	"application": {
		allowLocal: []string{"application", "domain", "ports"},
		allowExternal: []string{
			rootModule + "/internal/shared",
			"go.opentelemetry.io/otel",
		},
		forbidInfix: []string{"/adapters/", "/internal/platform/", "/internal/app/"},
	},
}

func main() {
	violations := collectViolations("contexts")
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		return violations[i].Line < violations[j].Line
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

func collectViolations(root string) []violation {
	var violations []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(path), "/")
		if len(parts) < 4 || parts[0] != "contexts" {
			return nil
		}
		servicePath := fmt.Sprintf("%s/contexts/%s/%s", rootModule, parts[1], parts[2])
		violations = append(violations, checkFile(path, parts[3], servicePath)...)
		return nil
	})
	return violations
}

func checkFile(path string, layer string, servicePath string) []violation {
	normalized := filepath.ToSlash(path)
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalized, Line: 1, Rule: "file must parse"}}
	}

	var violations []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, "\"")
		line := fset.Position(imp.Pos()).Line
		for _, rule := range checkImport(layer, importPath, servicePath) {
			violations = append(violations, violation{
				File:   normalized,
				Line:   line,
				Import: importPath,
				Rule:   rule,
			})
		}
	}
	return violations
}

// checkImport returns the names of the rules importPath breaks.
func checkImport(layer string, importPath string, servicePath string) []string {
	var broken []string
	if hasPrefix(importPath, rootModule+"/contexts") && !hasPrefix(importPath, servicePath) {
		broken = append(broken, "cross-module imports are forbidden")
	}

	rule, ok := layerRules[layer]
	if !ok || isStdlib(importPath) {
		return broken
	}
	for _, infix := range rule.forbidInfix {
		if strings.Contains(importPath, infix) {
			broken = append(broken, fmt.Sprintf("%s must not import %s", layer, strings.Trim(infix, "/")))
		}
	}

	allowed := append([]string(nil), rule.allowExternal...)
	for _, local := range rule.allowLocal {
		allowed = append(allowed, servicePath+"/"+local)
	}
	if !isAllowed(importPath, allowed) {
		broken = append(broken, layer+" import is outside explicit allowlist")
	}
	return broken
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, rootModule) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
