// Package nosecretlog reports credentials handed to a logger.
package nosecretlog

import (
	"go/ast"
	"regexp"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/types/typeutil"
)

// Analyzer flags variables and fields named like a password, secret or
// token that are passed as arguments to zap or the standard log package.
var Analyzer = &analysis.Analyzer{
	Name: "nosecretlog",
	Doc:  "reports passwords, secrets and tokens passed to a logger",
	Run:  run,
}

var loggerPackages = map[string]bool{
	"go.uber.org/zap": true,
	"log":             true,
}

var secretName = regexp.MustCompile(`(?i)(password|passwd|secret|token|hash)`)

func run(pass *analysis.Pass) (interface{}, error) {
	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}

			callee := typeutil.Callee(pass.TypesInfo, call)
			if callee == nil || callee.Pkg() == nil || !loggerPackages[callee.Pkg().Path()] {
				return true
			}

			for _, arg := range call.Args {
				if name := argName(arg); name != "" && secretName.MatchString(name) {
					pass.Reportf(arg.Pos(), "%s looks like a credential and must not be logged", name)
				}
			}

			return true
		})
	}

	return nil, nil
}

func argName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.StarExpr:
		return argName(e.X)
	}

	return ""
}
