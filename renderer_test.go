// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package appforge

import (
	"path/filepath"
	"reflect"
	"text/template"

	"github.com/CloudyKit/jet/v6"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Renderer", func() {
	var targetDir string

	BeforeEach(func() {
		targetDir = filepath.Join(GinkgoT().TempDir(), "target")
	})

	newGenerator := func(cfg Config, funcs template.FuncMap) *Generator {
		cfg.TargetDirectory = targetDir
		cfg.TemplateDirectory = absTestdata("templates")
		if cfg.ProjectName == "" {
			cfg.ProjectName = "demo"
		}

		g, err := New(cfg, funcs)
		Expect(err).ToNot(HaveOccurred())

		return g
	}

	Describe("RenderString", func() {
		DescribeTable("Rendering",
			func(cfg Config, funcs template.FuncMap, tmpl string, data any, expected string) {
				result, err := newGenerator(cfg, funcs).RenderString(tmpl, data)
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal(expected))
			},
			Entry("basic template",
				Config{}, template.FuncMap{},
				"Hello {{ .ProjectName }}", map[string]any{"ProjectName": "demo"},
				"Hello demo"),
			Entry("sprig functions",
				Config{}, template.FuncMap{},
				`{{ "hello" | upper }}`, nil,
				"HELLO"),
			Entry("custom delimiters",
				Config{CustomLeftDelimiter: "<<", CustomRightDelimiter: ">>"},
				template.FuncMap{},
				"Hello << .ProjectName >>", map[string]any{"ProjectName": "demo"},
				"Hello demo"),
			Entry("custom functions",
				Config{},
				template.FuncMap{"greet": func(name string) string { return "hi " + name }},
				`{{ greet "bob" }}`, nil,
				"hi bob"),
		)

		It("Should return errors for invalid templates", func() {
			_, err := newGenerator(Config{}, nil).RenderString("{{ .Invalid | nosuchfunc }}", nil)
			Expect(err).To(HaveOccurred())
		})

		It("Should be deterministic for static templates", func() {
			static := "const answer = 42"

			plain := newGenerator(Config{}, nil)
			styled := newGenerator(Config{Styling: true, Router: RouterFile, Language: LanguageUntyped}, nil)

			a, err := plain.RenderString(static, plain.templateData())
			Expect(err).ToNot(HaveOccurred())

			b, err := styled.RenderString(static, styled.templateData())
			Expect(err).ToNot(HaveOccurred())

			Expect(a).To(Equal(b))
		})

		Context("With Jet engine", func() {
			newJet := func(cfg Config, funcs map[string]jet.Func) *Generator {
				cfg.TargetDirectory = targetDir
				cfg.TemplateDirectory = absTestdata("templates")
				cfg.ProjectName = "demo"

				g, err := NewJet(cfg, funcs)
				Expect(err).ToNot(HaveOccurred())

				return g
			}

			It("Should render a basic template", func() {
				result, err := newJet(Config{}, nil).RenderString("Hello {{ .ProjectName }}", map[string]any{"ProjectName": "demo"})
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal("Hello demo"))
			})

			It("Should support custom Jet functions", func() {
				funcs := map[string]jet.Func{
					"greet": func(args jet.Arguments) reflect.Value {
						args.RequireNumOfArguments("greet", 1, 1)
						var name string
						err := args.ParseInto(&name)
						if err != nil {
							args.Panicf("greet: %v", err)
						}
						return reflect.ValueOf("hi " + name)
					},
				}

				result, err := newJet(Config{}, funcs).RenderString(`{{ greet("bob") }}`, nil)
				Expect(err).ToNot(HaveOccurred())
				Expect(result).To(Equal("hi bob"))
			})

			It("Should return errors for invalid templates", func() {
				_, err := newJet(Config{}, nil).RenderString("{{ nosuchfunc() }}", nil)
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("CommandFormatter", func() {
		It("Should pipe content through the command", func() {
			f := &CommandFormatter{Command: "tr a-z A-Z"}

			out, err := f.Format("app.ts", []byte("const x = 1"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(out)).To(Equal("CONST X = 1"))
		})

		It("Should fail for missing commands", func() {
			f := &CommandFormatter{Command: "/no/such/formatter {}"}

			_, err := f.Format("app.ts", []byte("const x = 1"))
			Expect(err).To(MatchError(ContainSubstring("formatter failed")))
		})
	})

	Describe("isCodeTarget", func() {
		DescribeTable("Extension matching",
			func(path string, expected bool) {
				Expect(isCodeTarget(path)).To(Equal(expected))
			},
			Entry("typescript", "src/app.ts", true),
			Entry("tsx", "src/app.tsx", true),
			Entry("javascript", "src/app.js", true),
			Entry("jsx", "src/app.jsx", true),
			Entry("html", "index.html", false),
			Entry("css", "styles.css", false),
			Entry("json", "package.json", false),
		)
	})
})
