package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"amylang/internal/analyzer"
	"amylang/internal/ast"
	"amylang/internal/codegen"
	"amylang/internal/diag"
	"amylang/internal/interp"
	"amylang/internal/lexer"
	"amylang/internal/parser"
	"amylang/internal/source"
	"amylang/internal/typer"
)

func usage() {
	fmt.Fprintln(os.Stderr, "amyc - Amy to WebAssembly compiler")
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  amyc [mode] <file>...")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "modes:")
	fmt.Fprintln(os.Stderr, "  --tokens     dump the token stream and exit")
	fmt.Fprintln(os.Stderr, "  --parse      parse and pretty-print the program")
	fmt.Fprintln(os.Stderr, "  --interpret  run the program with the tree-walking evaluator")
	fmt.Fprintln(os.Stderr, "  --compile    emit <program>.wat plus loader files (default)")
}

type mode int

const (
	modeCompile mode = iota
	modeTokens
	modeParse
	modeInterpret
)

func parseArgs(args []string) (mode, []string, error) {
	m := modeCompile
	var files []string
	for _, a := range args {
		switch a {
		case "--tokens":
			m = modeTokens
		case "--parse":
			m = modeParse
		case "--interpret":
			m = modeInterpret
		case "--compile":
			m = modeCompile
		default:
			if strings.HasPrefix(a, "-") {
				return m, nil, fmt.Errorf("unknown flag: %s", a)
			}
			files = append(files, a)
		}
	}
	if len(files) == 0 {
		return m, nil, fmt.Errorf("no input files")
	}
	return m, files, nil
}

func main() {
	m, paths, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "amyc:", err)
		usage()
		os.Exit(2)
	}

	files := make([]*source.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, "amyc:", err)
			os.Exit(1)
		}
		files = append(files, source.NewFile(p, string(data)))
	}

	if m == modeTokens {
		toks, diags := lexer.LexFiles(files)
		if fail(diags) {
			os.Exit(1)
		}
		for _, t := range toks {
			fn, line, col := t.Span.LocStart()
			fmt.Printf("%s:%d:%d\t%s\t%s\n", fn, line, col, t.Kind, t.Lexeme)
		}
		return
	}

	toks, diags := lexer.LexFiles(files)
	if fail(diags) {
		os.Exit(1)
	}
	prog, diags := parser.Parse(toks)
	if fail(diags) {
		os.Exit(1)
	}
	if m == modeParse {
		ast.Print(os.Stdout, prog)
		return
	}

	sprog, table, diags := analyzer.Analyze(prog)
	if fail(diags) {
		os.Exit(1)
	}
	if fail(typer.Check(sprog, table)) {
		os.Exit(1)
	}

	if m == modeInterpret {
		if err := interp.Run(sprog, table, os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	name := strings.TrimSuffix(filepath.Base(paths[0]), filepath.Ext(paths[0]))
	outDir := filepath.Dir(paths[0])
	mod := codegen.Compile(sprog, table, name)
	if err := writeOutputs(outDir, name, mod.WatString()); err != nil {
		fmt.Fprintln(os.Stderr, "amyc:", err)
		os.Exit(1)
	}
}

func fail(b *diag.Bag) bool {
	diag.Print(os.Stderr, b)
	return b.Failed()
}

// writeOutputs puts <name>.wat and <name>.html next to the first input
// file, and the linked module plus a nodejs runner under wasmout/.
func writeOutputs(dir, name, wat string) error {
	watPath := filepath.Join(dir, name+".wat")
	if err := os.WriteFile(watPath, []byte(wat), 0o644); err != nil {
		return err
	}
	htmlPath := filepath.Join(dir, name+".html")
	if err := os.WriteFile(htmlPath, []byte(htmlLoader(name)), 0o644); err != nil {
		return err
	}
	wasmDir := filepath.Join(dir, "wasmout")
	if err := os.MkdirAll(wasmDir, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(wasmDir, name+".js"), []byte(nodeRunner(name)), 0o644); err != nil {
		return err
	}
	wasmPath := filepath.Join(wasmDir, name+".wasm")
	if w2w, err := exec.LookPath("wat2wasm"); err == nil {
		cmd := exec.Command(w2w, watPath, "-o", wasmPath)
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("wat2wasm: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "amyc: wat2wasm not found; %s was not assembled\n", wasmPath)
	}
	return nil
}
