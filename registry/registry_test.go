// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/appforge-io/appforge/manifest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestRegistry(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Registry")
}

var _ = Describe("Registry", func() {
	absTestdata := func(sub string) string {
		abs, err := filepath.Abs(filepath.Join("testdata", sub))
		Expect(err).ToNot(HaveOccurred())
		return abs
	}

	Describe("Open", func() {
		It("Should require a readable catalog", func() {
			_, err := Open("/no/such/catalog")
			Expect(err).To(MatchError(ContainSubstring("cannot read catalog")))
		})
	})

	Describe("AddOns", func() {
		It("Should load add-ons in catalog directory order", func() {
			reg, err := Open(absTestdata("catalog"))
			Expect(err).ToNot(HaveOccurred())

			addons, err := reg.AddOns()
			Expect(err).ToNot(HaveOccurred())
			Expect(addons).To(HaveLen(2))
			Expect(addons[0].ID).To(Equal("auth"))
			Expect(addons[1].ID).To(Equal("metrics"))
		})

		It("Should populate all descriptor fields", func() {
			reg, err := Open(absTestdata("catalog"))
			Expect(err).ToNot(HaveOccurred())

			addons, err := reg.AddOns()
			Expect(err).ToNot(HaveOccurred())

			auth := addons[0]
			Expect(auth.Name).To(Equal("Auth"))
			Expect(auth.Description).To(Equal("Session based authentication"))
			Expect(auth.Phase).To(Equal(PhaseSetup))
			Expect(auth.Routes).To(Equal([]Route{
				{URL: "/login", Name: "Login"},
				{URL: "/logout", Name: "Logout"},
			}))
			Expect(auth.Main).To(Equal("src/auth/provider.tsx"))
			Expect(auth.Layout).To(Equal("src/auth/layout.tsx"))
			Expect(auth.UserUI).To(Equal("src/auth/widget.tsx"))
			Expect(auth.ShadcnComponents).To(Equal([]string{"button", "form"}))
			Expect(auth.Warning).To(Equal("configure AUTH_SECRET before deploying"))
			Expect(auth.Command).To(Equal("npm run auth:setup"))
			Expect(auth.AssetsDirectory).To(Equal(filepath.Join(absTestdata("catalog"), "auth", "assets")))
			Expect(auth.Readme).To(ContainSubstring("## Auth"))

			Expect(auth.Contribution).ToNot(BeNil())
			Expect(auth.Contribution.Dependencies).To(HaveKeyWithValue("argon2", "^0.41.0"))
		})

		It("Should treat absent optional files as no contribution", func() {
			reg, err := Open(absTestdata("catalog"))
			Expect(err).ToNot(HaveOccurred())

			addons, err := reg.AddOns()
			Expect(err).ToNot(HaveOccurred())

			metrics := addons[1]
			Expect(metrics.Phase).To(Equal(PhaseAddOn))
			Expect(metrics.Contribution).To(BeNil())
			Expect(metrics.Readme).To(Equal(""))
			Expect(metrics.AssetsDirectory).To(Equal(""))
		})

		DescribeTable("Malformed entries fail the whole load",
			func(catalog string, errMatch string) {
				reg, err := Open(absTestdata(filepath.Join("broken", catalog)))
				Expect(err).ToNot(HaveOccurred())

				_, err = reg.AddOns()

				var lerr *LoadError
				Expect(errors.As(err, &lerr)).To(BeTrue())
				Expect(lerr.Entry).To(Equal("entry"))
				Expect(err).To(MatchError(ContainSubstring(errMatch)))
			},
			Entry("invalid phase value", "bad-phase", `invalid add-on "entry"`),
			Entry("missing descriptor", "missing-descriptor", "missing descriptor"),
			Entry("unknown descriptor field", "unknown-field", `invalid add-on "entry"`),
			Entry("missing name", "missing-name", `invalid add-on "entry"`),
			Entry("route without url", "bad-routes", `invalid add-on "entry"`),
		)

		It("Should wrap malformed manifest contributions", func() {
			reg, err := Open(absTestdata("broken/bad-contribution"))
			Expect(err).ToNot(HaveOccurred())

			_, err = reg.AddOns()

			var lerr *LoadError
			Expect(errors.As(err, &lerr)).To(BeTrue())

			var perr *manifest.ParseError
			Expect(errors.As(err, &perr)).To(BeTrue())
		})
	})

	Describe("AddOn", func() {
		It("Should load a single add-on by id", func() {
			reg, err := Open(absTestdata("catalog"))
			Expect(err).ToNot(HaveOccurred())

			addon, err := reg.AddOn("auth")
			Expect(err).ToNot(HaveOccurred())
			Expect(addon.ID).To(Equal("auth"))
		})

		It("Should fail for ids not in the catalog", func() {
			reg, err := Open(absTestdata("catalog"))
			Expect(err).ToNot(HaveOccurred())

			_, err = reg.AddOn("nope")
			Expect(err).To(MatchError(ContainSubstring("not in catalog")))
		})
	})
})
