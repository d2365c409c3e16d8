// Copyright (c) 2026, the AppForge contributors
//
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/appforge-io/appforge"
	"github.com/appforge-io/appforge/internal/validator"
	"github.com/appforge-io/appforge/registry"
	"github.com/choria-io/fisk"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	terminal "golang.org/x/term"
)

var (
	projectName    string
	target         string
	templatesDir   string
	catalogDir     string
	language       string
	router         string
	styling        bool
	packageManager string
	addOns         []string
	engineString   string
	leftDelimiter  string
	rightDelimiter string
	formatCommand  string
	interactive    bool
	install        bool
	debug          bool
	version        string
)

const projectNameExpression = `value matches '^[a-z][a-z0-9-]*$'`

func main() {
	app := fisk.New("appforge", "Generates application directories from templates and add-ons")
	app.Version(version)

	app.Help = `
Creates a new application from a base template, a routing mode template and
optional add-on packages, merging their manifest contributions into a single
deterministic package.json.
`
	app.Flag("debug", "Enables debug logging").UnNegatableBoolVar(&debug)

	create := app.Command("create", "Creates a new application").Action(createAction)
	create.Arg("name", "The project name").StringVar(&projectName)
	create.Arg("target", "The directory to create, defaults to the project name").StringVar(&target)
	create.Flag("templates", "The template library directory").Required().ExistingDirVar(&templatesDir)
	create.Flag("catalog", "The add-on catalog directory").ExistingDirVar(&catalogDir)
	create.Flag("language", "The language variant").Default(appforge.LanguageTyped).EnumVar(&language, appforge.LanguageTyped, appforge.LanguageUntyped)
	create.Flag("router", "The routing mode").Default(appforge.RouterCode).EnumVar(&router, appforge.RouterCode, appforge.RouterFile)
	create.Flag("styling", "Enables the styling variant").UnNegatableBoolVar(&styling)
	create.Flag("package-manager", "The package manager recorded in the templates").Default("npm").EnumVar(&packageManager, "npm", "pnpm", "yarn", "bun", "deno")
	create.Flag("add-on", "Add-ons to include, in order").PlaceHolder("ID").StringsVar(&addOns)
	create.Flag("interactive", "Select add-ons interactively").UnNegatableBoolVar(&interactive)
	create.Flag("engine", "The template engine to use (jet, go)").Default("go").EnumVar(&engineString, "jet", "go")
	create.Flag("left", "Left template delimiter").StringVar(&leftDelimiter)
	create.Flag("right", "Right template delimiter").StringVar(&rightDelimiter)
	create.Flag("format", "Command used to format rendered code files, empty disables").Default(appforge.DefaultFormatterCommand).StringVar(&formatCommand)
	create.Flag("install", "Runs the package manager install after generation").UnNegatableBoolVar(&install)

	addons := app.Command("addons", "Lists the add-ons in a catalog").Action(addonsAction)
	addons.Arg("catalog", "The add-on catalog directory").Required().ExistingDirVar(&catalogDir)

	app.MustParseWithUsage(os.Args[1:])
}

func isTerminal() bool {
	return terminal.IsTerminal(int(os.Stdin.Fd())) && terminal.IsTerminal(int(os.Stdout.Fd()))
}

func askProjectName() error {
	return survey.AskOne(&survey.Input{
		Message: "Project name",
	}, &projectName, survey.WithValidator(validator.SurveyValidator(projectNameExpression, true)))
}

func askAddOns() error {
	reg, err := registry.Open(catalogDir)
	if err != nil {
		return err
	}

	available, err := reg.AddOns()
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return nil
	}

	options := make([]string, len(available))
	descriptions := make(map[string]string, len(available))
	for i, addon := range available {
		options[i] = addon.ID
		descriptions[addon.ID] = addon.Description
	}

	return survey.AskOne(&survey.MultiSelect{
		Message: "Select add-ons",
		Options: options,
		Description: func(value string, _ int) string {
			return descriptions[value]
		},
	}, &addOns)
}

func createAction(_ *fisk.ParseContext) error {
	if projectName == "" {
		if !isTerminal() {
			return fmt.Errorf("project name is required")
		}
		if err := askProjectName(); err != nil {
			return err
		}
	}

	if err := validator.SurveyValidator(projectNameExpression, true)(projectName); err != nil {
		return err
	}

	if interactive {
		if !isTerminal() {
			return fmt.Errorf("interactive add-on selection requires a terminal")
		}
		if catalogDir == "" {
			return fmt.Errorf("interactive add-on selection requires a catalog")
		}
		if err := askAddOns(); err != nil {
			return err
		}
	}

	if target == "" {
		target = projectName
	}

	cfg := appforge.Config{
		ProjectName:          projectName,
		TargetDirectory:      target,
		TemplateDirectory:    templatesDir,
		CatalogDirectory:     catalogDir,
		Language:             language,
		Router:               router,
		Styling:              styling,
		PackageManager:       packageManager,
		AddOns:               addOns,
		CustomLeftDelimiter:  leftDelimiter,
		CustomRightDelimiter: rightDelimiter,
	}

	if formatCommand != "" {
		cfg.Formatter = &appforge.CommandFormatter{Command: formatCommand}
	}

	var g *appforge.Generator
	var err error

	if engineString == "jet" {
		g, err = appforge.NewJet(cfg, nil)
	} else {
		g, err = appforge.New(cfg, nil)
	}
	if err != nil {
		return err
	}

	g.Logger(newLogger(debug))

	err = g.Generate()
	if err != nil {
		return err
	}

	for _, f := range g.WrittenFiles() {
		fmt.Println(f)
	}

	if install {
		if err := runInstall(); err != nil {
			return err
		}
	}

	for _, w := range g.Warnings() {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	fmt.Printf("Created %s in %s\n", projectName, target)

	return nil
}

func runInstall() error {
	cmd := exec.Command(packageManager, "install")
	cmd.Dir = target
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err != nil {
		return fmt.Errorf("%s install failed: %w", packageManager, err)
	}

	return nil
}

func addonsAction(_ *fisk.ParseContext) error {
	reg, err := registry.Open(catalogDir)
	if err != nil {
		return err
	}

	available, err := reg.AddOns()
	if err != nil {
		return err
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Phase", "Name", "Description"})
	for _, addon := range available {
		tw.AppendRow(table.Row{addon.ID, addon.Phase, addon.Name, addon.Description})
	}
	tw.Render()

	return nil
}

type logger struct {
	l zerolog.Logger
}

func newLogger(debug bool) *logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}

	return &logger{l: zerolog.New(out).Level(level).With().Timestamp().Logger()}
}

func (z *logger) Debugf(format string, v ...any) { z.l.Debug().Msgf(format, v...) }
func (z *logger) Infof(format string, v ...any)  { z.l.Info().Msgf(format, v...) }
