// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package appforge

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Composer", func() {
	var (
		targetDir string
		g         *Generator
	)

	BeforeEach(func() {
		targetDir = filepath.Join(GinkgoT().TempDir(), "target")

		var err error
		g, err = New(Config{
			ProjectName:       "demo",
			TargetDirectory:   targetDir,
			TemplateDirectory: absTestdata("templates"),
			Styling:           true,
		}, nil)
		Expect(err).ToNot(HaveOccurred())
	})

	Describe("resolveEntry", func() {
		DescribeTable("Qualifier handling with styling enabled",
			func(name string, expectedRule fileRule, expectedName string) {
				rule, out := g.resolveEntry(name)
				Expect(rule).To(Equal(expectedRule))
				Expect(out).To(Equal(expectedName))
			},
			Entry("plain file", "logo.svg", ruleCopy, "logo.svg"),
			Entry("render rule", "index.html.tmpl", ruleRender, "index.html"),
			Entry("append rule", "server.ts.append", ruleAppend, "server.ts"),
			Entry("styling qualifier", "styles.styled.css", ruleCopy, "styles.css"),
			Entry("styling and render combined", "Header.styled.tsx.tmpl", ruleRender, "Header.tsx"),
		)

		It("Should skip styling files when styling is disabled", func() {
			plain, err := New(Config{
				ProjectName:       "demo",
				TargetDirectory:   targetDir,
				TemplateDirectory: absTestdata("templates"),
			}, nil)
			Expect(err).ToNot(HaveOccurred())

			rule, _ := plain.resolveEntry("styles.styled.css")
			Expect(rule).To(Equal(ruleSkip))

			rule, _ = plain.resolveEntry("Header.styled.tsx.tmpl")
			Expect(rule).To(Equal(ruleSkip))
		})
	})

	Describe("composeTree", func() {
		data := map[string]any{"ProjectName": "demo"}

		It("Should treat a missing source root as an empty contribution", func() {
			Expect(g.composeTree(absTestdata("no-such-tree"), data)).To(Succeed())
		})

		It("Should mirror nested directories into the target", func() {
			Expect(os.MkdirAll(targetDir, 0755)).To(Succeed())
			Expect(g.composeTree(absTestdata("templates/base"), data)).To(Succeed())

			info, err := os.Stat(filepath.Join(targetDir, "src"))
			Expect(err).ToNot(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("Should copy plain files byte for byte", func() {
			Expect(os.MkdirAll(targetDir, 0755)).To(Succeed())
			Expect(g.composeTree(absTestdata("catalog/start/assets"), data)).To(Succeed())

			content, err := os.ReadFile(filepath.Join(targetDir, "src", "server.ts"))
			Expect(err).ToNot(HaveOccurred())

			source, err := os.ReadFile(absTestdata("catalog/start/assets/src/server.ts"))
			Expect(err).ToNot(HaveOccurred())
			Expect(content).To(Equal(source))
		})

		It("Should append to targets written by an earlier pass", func() {
			Expect(os.MkdirAll(targetDir, 0755)).To(Succeed())
			Expect(g.composeTree(absTestdata("catalog/start/assets"), data)).To(Succeed())
			Expect(g.composeTree(absTestdata("catalog/metrics/assets"), data)).To(Succeed())

			content, err := os.ReadFile(filepath.Join(targetDir, "src", "server.ts"))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(content)).To(Equal("export const handlers = []\nhandlers.push(metricsHandler)\n"))
		})

		It("Should reject appends before the target exists", func() {
			Expect(os.MkdirAll(targetDir, 0755)).To(Succeed())

			err := g.composeTree(absTestdata("catalog/metrics/assets"), data)

			var aerr *MissingAppendTargetError
			Expect(errors.As(err, &aerr)).To(BeTrue())
			Expect(aerr.Source).To(HaveSuffix("server.ts.append"))
		})

		It("Should refuse to write outside the target directory", func() {
			err := g.saveFile(filepath.Join(targetDir, "..", "escape.txt"), []byte("x"))
			Expect(err).To(MatchError(ContainSubstring("is not in target directory")))
		})
	})
})
