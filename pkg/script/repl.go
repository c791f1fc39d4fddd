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


package script

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

//
const prompt = "fdc> "

/*
	REPL reads Lua statements line by line from in and runs them, until in is
	exhausted or a line reads "exit". If in is a terminal, it is switched to
	raw mode and line editing is provided.
*/
func (e *Engine) REPL(in io.Reader, out io.Writer) error {

	saved := e.out
	defer func() { e.out = saved }()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return e.terminalREPL(f, out)
	}

	e.out = out
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !e.evaluate(scanner.Text(), out) {
			return nil
		}
	}
	return scanner.Err()
}

//
func (e *Engine) terminalREPL(f *os.File, out io.Writer) error {

	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("cannot switch terminal to raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	t := term.NewTerminal(struct {
		io.Reader
		io.Writer
	}{f, out}, prompt)

	e.out = t

	for {
		line, err := t.ReadLine()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if !e.evaluate(line, t) {
			return nil
		}
	}
}

// evaluate runs one line of input, and returns false when the REPL should end
func (e *Engine) evaluate(line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return true
	case "exit", "quit":
		return false
	}
	if err := e.RunString(line); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	return true
}
