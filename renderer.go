// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package appforge

import (
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	"github.com/Masterminds/sprig/v3"
	"github.com/kballard/go-shellquote"
)

type engineType int

const (
	engineGoTemplate engineType = iota
	engineJet
)

// codeExtensions lists target extensions that receive the code formatting
// pass after rendering.
var codeExtensions = []string{".ts", ".tsx", ".js", ".jsx"}

// Formatter reformats rendered output for code targets. A formatting failure
// is fatal for the run since malformed generated code is never acceptable.
type Formatter interface {
	Format(path string, content []byte) ([]byte, error)
}

// CommandFormatter pipes content through an external formatting command on
// stdin. Occurrences of {} in the command are replaced with the target path
// so tools like prettier can pick a parser from the file name.
type CommandFormatter struct {
	Command string
}

// DefaultFormatterCommand produces the canonical generated-code style: no
// semicolons, single quotes, trailing commas.
const DefaultFormatterCommand = "prettier --stdin-filepath {} --no-semi --single-quote --trailing-comma all"

func (f *CommandFormatter) Format(path string, content []byte) ([]byte, error) {
	parts, err := shellquote.Split(f.Command)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty formatter command")
	}

	var args []string
	for _, p := range parts[1:] {
		args = append(args, strings.ReplaceAll(p, "{}", path))
	}

	cmd := exec.Command(parts[0], args...)
	cmd.Stdin = bytes.NewReader(content)

	stdout := bytes.NewBuffer([]byte{})
	stderr := bytes.NewBuffer([]byte{})
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err = cmd.Run()
	if err != nil {
		return nil, fmt.Errorf("formatter failed: %w: %s", err, stderr.String())
	}

	return stdout.Bytes(), nil
}

func isCodeTarget(path string) bool {
	ext := filepath.Ext(path)
	for _, e := range codeExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// RenderString renders a string using the same engine, functions and
// delimiters as the scaffold templates. No formatting pass is applied.
func (g *Generator) RenderString(str string, data any) (string, error) {
	res, err := g.renderTemplateBytes("string", []byte(str), data)
	if err != nil {
		return "", err
	}

	return string(res), nil
}

func (g *Generator) templateFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	for k, v := range g.funcs {
		funcs[k] = v
	}

	return funcs
}

func (g *Generator) jetTemplateFuncs() map[string]jet.Func {
	funcs := make(map[string]jet.Func)
	for k, v := range g.jetFuncs {
		funcs[k] = v
	}

	return funcs
}

func (g *Generator) renderTemplateBytes(name string, tmpl []byte, data any) ([]byte, error) {
	switch g.engine {
	case engineJet:
		return g.renderTemplateBytesJet(name, tmpl, data)
	default:
		return g.renderTemplateBytesGoTempl(name, tmpl, data)
	}
}

func (g *Generator) renderTemplateBytesGoTempl(name string, tmpl []byte, data any) ([]byte, error) {
	buf := bytes.NewBuffer([]byte{})
	templ := template.New(name)
	templ.Funcs(g.templateFuncs())

	if g.cfg.CustomLeftDelimiter != "" && g.cfg.CustomRightDelimiter != "" {
		templ.Delims(g.cfg.CustomLeftDelimiter, g.cfg.CustomRightDelimiter)
	}

	templ, err := templ.Parse(string(tmpl))
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	err = templ.Execute(buf, data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (g *Generator) renderTemplateBytesJet(name string, tmpl []byte, data any) ([]byte, error) {
	loader := jet.NewInMemLoader()
	loader.Set(name, string(tmpl))

	opts := []jet.Option{jet.WithSafeWriter(nil)}
	if g.cfg.CustomLeftDelimiter != "" && g.cfg.CustomRightDelimiter != "" {
		opts = append(opts, jet.WithDelims(g.cfg.CustomLeftDelimiter, g.cfg.CustomRightDelimiter))
	}

	set := jet.NewSet(loader, opts...)

	for k, fn := range g.jetTemplateFuncs() {
		set.AddGlobalFunc(k, fn)
	}

	t, err := set.GetTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("parsing template %v failed: %w", name, err)
	}

	buf := bytes.NewBuffer([]byte{})
	err = t.Execute(buf, nil, data)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// renderTemplate renders a source template destined for target, applying the
// code formatting pass when the target is a code file and a formatter is
// configured. Failures carry the offending path.
func (g *Generator) renderTemplate(source string, target string, tmpl []byte, data any) ([]byte, error) {
	res, err := g.renderTemplateBytes(filepath.Base(source), tmpl, data)
	if err != nil {
		return nil, &RenderError{Path: source, Err: err}
	}

	if g.cfg.Formatter != nil && isCodeTarget(target) {
		res, err = g.cfg.Formatter.Format(target, res)
		if err != nil {
			return nil, &RenderError{Path: target, Err: err}
		}
	}

	return res, nil
}
