/*
   CPCFdc - Amstrad CPC floppy disk controller emulator
   Copyright (c) 2021, Alexander Vollschwitz

   This file is part of CPCFdc.

   CPCFdc is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   CPCFdc is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with CPCFdc. If not, see <http://www.gnu.org/licenses/>.
*/


package run

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//
const (
	prologueHeader = ""
	epilogueHeader = `
Notes:

`
)

/*
	The package initializer sets up logging based on logrus. The following
	environment variables can be used to configure logging:

		LOG_FORMAT		set to `json` for JSON logging
		LOG_FORCE_COLORS	set to non-empty for forcing colorized log entries
		LOG_METHODS		set to non-empty for including methods in log
		LOG_LEVEL		`panic`, `fatal`, `error`, `warn`, `info`, `debug`, `trace`
*/
func init() {
	log.SetOutput(os.Stdout)
	ConfigureLogging(os.Getenv)
}

// ConfigureLogging sets up logrus from the logging settings looked up via
// getenv.
func ConfigureLogging(getenv func(string) string) {

	if strings.ToLower(getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else if strings.ToLower(getenv("LOG_FORCE_COLORS")) != "" {
		log.SetFormatter(&log.TextFormatter{
			ForceColors: true,
		})
	}

	if strings.ToLower(getenv("LOG_METHODS")) != "" {
		log.SetReportCaller(true)
	}

	level := getenv("LOG_LEVEL")
	if level != "" {
		l, err := log.ParseLevel(level)
		if err != nil {
			log.Errorf("invalid log level: '%s'; valid levels are: panic, "+
				"fatal, error, warn, info, debug, trace", level)
		} else {
			log.SetLevel(l)
		}
	}
}

// DieOnError exits the running process if e is not nil, printing the error.
func DieOnError(e error) {
	if e != nil {
		fmt.Println(e)
		os.Exit(1)
	}
}

// Die exits the running process, printing the given message.
func Die(msg string, params ...interface{}) {
	if len(params) > 0 {
		fmt.Printf(msg, params...)
	} else {
		fmt.Println(msg)
	}
	os.Exit(1)
}

// GetUserConfirmation asks the user to confirm prompt on the console.
func GetUserConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var res string
	fmt.Scanln(&res)
	return isConfirmation(res)
}

//
func isConfirmation(res string) bool {
	res = strings.ToLower(strings.TrimSpace(res))
	return res == "y" || res == "yes"
}

/*
	NewCommand creates a base command instance, wrapping a new Cobra command.
	The exec function is invoked when the command's Execute method is called.
*/
func NewCommand(use, short, long, helpPrologue, helpEpilogue string,
	exec func() error) *Command {

	ret := &Command{
		cmd: &cobra.Command{
			Use:   use,
			Short: short,
			Long:  long,
			RunE: func(*cobra.Command, []string) error {
				return exec()
			},
			SilenceErrors:         true,
			SilenceUsage:          true,
			DisableFlagsInUseLine: true,
		},
		helpPrologue: helpPrologue,
		helpEpilogue: helpEpilogue,
	}
	ret.helpFunc = ret.cmd.HelpFunc()
	ret.cmd.SetHelpFunc(ret.help)
	return ret
}

/*
	Command wraps a Cobra command and binds its settings with Viper. A setting
	can come from a command line flag or an environment variable, the flag
	taking precedence. Required settings that are missing from both are
	reported with the flag and variable to use.
*/
type Command struct {
	//
	cmd      *cobra.Command
	settings []*setting
	//
	helpPrologue string
	helpEpilogue string
	helpFunc     func(*cobra.Command, []string)
}

//
func (c *Command) help(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	if c.helpPrologue != "" {
		fmt.Fprintln(out, prologueHeader+c.helpPrologue)
	}
	if c.helpFunc != nil {
		c.helpFunc(cmd, args)
	}
	if c.helpEpilogue != "" {
		fmt.Fprintln(out, epilogueHeader+c.helpEpilogue)
	} else {
		fmt.Fprintln(out)
	}
}

// Execute runs the command with args, or with os.Args if args is empty.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 {
		c.cmd.SetArgs(args)
	}
	return c.cmd.Execute()
}

/*
	AddSetting binds target, a pointer to a string, int, or bool, to the long
	command line flag, its short version, and the environment variable env, if
	given. def is the default value, nil for the zero value. A required setting
	cannot have a default.
*/
func (c *Command) AddSetting(target interface{}, flag, short, env string,
	def interface{}, help string, required bool) {

	if required && def != nil {
		Die("required setting '%s' does not take a default value\n", flag)
	}

	if env != "" {
		help = fmt.Sprintf("%s (%s)", help, env)
	}

	flags := c.cmd.Flags()
	if err := addFlag(flags, target, flag, short, def, help); err != nil {
		Die("setting '%s': %v\n", flag, err)
	}

	log.Tracef("add setting: flag=%s, env=%s, type=%T", flag, env, target)

	viper.BindPFlag(flag, flags.Lookup(flag))
	if env != "" {
		viper.BindEnv(flag, env)
	}

	c.settings = append(c.settings, &setting{
		flag: flag, env: env, required: required, target: target})
}

// addFlag adds a flag of the target's type to flags
func addFlag(flags *pflag.FlagSet, target interface{}, flag, short string,
	def interface{}, help string) error {

	ok := true

	switch t := target.(type) {
	case *string:
		var d string
		d, ok = defaultOf(def, d).(string)
		flags.StringVarP(t, flag, short, d, help)
	case *int:
		var d int
		d, ok = defaultOf(def, d).(int)
		flags.IntVarP(t, flag, short, d, help)
	case *bool:
		var d bool
		d, ok = defaultOf(def, d).(bool)
		flags.BoolVarP(t, flag, short, d, help)
	default:
		return fmt.Errorf("unsupported type %T", target)
	}

	if !ok {
		return fmt.Errorf("default value has incorrect type %T", def)
	}

	return nil
}

//
func defaultOf(def, zero interface{}) interface{} {
	if def == nil {
		return zero
	}
	return def
}

/*
	ParseSettings resolves all settings added so far and places their values
	in the bound targets. Call it from the exec function before using any of
	the targets.
*/
func (c *Command) ParseSettings() {
	for _, s := range c.settings {
		DieOnError(s.resolve())
	}
}

//
type setting struct {
	flag     string
	env      string
	required bool
	target   interface{}
}

// resolve sets the target from flag, env, or default, in that order. Viper's
// BindEnv alone does not update the target.
func (s *setting) resolve() error {

	var value interface{}
	missing := false

	switch t := s.target.(type) {
	case *string:
		*t = viper.GetString(s.flag)
		value, missing = *t, *t == ""
	case *int:
		*t = viper.GetInt(s.flag)
		value, missing = *t, *t == 0
	case *bool:
		*t = viper.GetBool(s.flag)
		value, missing = *t, !*t
	}

	log.WithFields(log.Fields{
		"flag":    s.flag,
		"value":   value,
		"default": !viper.IsSet(s.flag),
	}).Trace("setting resolved")

	if s.required && missing {
		msg := fmt.Sprintf(
			"you need to specify the --%s command line flag", s.flag)
		if s.env != "" {
			msg = fmt.Sprintf("%s or the %s environment variable", msg, s.env)
		}
		return fmt.Errorf("%s", msg)
	}

	return nil
}
