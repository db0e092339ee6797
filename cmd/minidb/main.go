// minidb is a line-oriented REPL (and -c CMD one-shot mode) for running
// raw DBM programs against a database file. There is no SQL here: every
// command is already the bytecode the DBM executes, one instruction per
// line, "Opcode p1 p2 p3 [p4...]".
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"minidb/btree"
	"minidb/dbm"
	"minidb/pager"
)

func main() {
	var (
		command   = flag.String("c", "", "run a single semicolon-separated DBM program and exit")
		verbose   = flag.Bool("v", false, "log every instruction of a program before running it")
		cacheCost = flag.Int64("cache", 1<<20, "page-cache byte budget when a database file is given")
	)
	flag.Parse()

	logger := log.New(os.Stderr, "", 0)
	if !*verbose {
		logger.SetOutput(discard{})
	}

	p, err := openPager(flag.Arg(0), *cacheCost)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer p.Close()

	if _, err := btree.Open(p, pager.DefaultPageSize); err != nil {
		log.Fatalf("open file header: %v", err)
	}

	if *command != "" {
		program, err := parseProgram(strings.ReplaceAll(*command, ";", "\n"))
		if err != nil {
			log.Fatalf("parse program: %v", err)
		}
		runProgram(p, program, logger, os.Stdout)
		return
	}

	repl(p, logger, os.Stdin, os.Stdout)
}

func openPager(path string, cacheCost int64) (pager.Pager, error) {
	if path == "" {
		return pager.NewMemory(), nil
	}
	return pager.NewFile(path, cacheCost)
}

// repl reads one DBM instruction per line, accumulating a program until
// the user types "run" (execute and clear the buffer) or "exit"/EOF.
func repl(p pager.Pager, logger *log.Logger, in *os.File, out *os.File) {
	scanner := bufio.NewScanner(in)
	var lines []string

	for {
		fmt.Fprint(out, "db> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.EqualFold(line, "exit"):
			return
		case strings.EqualFold(line, "run"):
			program, err := parseProgram(strings.Join(lines, "\n"))
			if err != nil {
				fmt.Fprintf(out, "parse error: %v\n", err)
			} else {
				runProgram(p, program, logger, out)
			}
			lines = nil
		default:
			lines = append(lines, line)
		}
	}
}

func runProgram(p pager.Pager, program []dbm.Instruction, logger *log.Logger, out *os.File) {
	m := dbm.NewMachine(p)
	for i, in := range program {
		logger.Printf("pc=%d %v p1=%d p2=%d p3=%d p4=%q", i, in.Opcode, in.P1, in.P2, in.P3, in.P4)
	}
	if err := m.Run(program); err != nil {
		fmt.Fprintf(out, "error: %v\n", err)
		return
	}
	for _, row := range m.Rows() {
		fmt.Fprintln(out, formatRow(row))
	}
	fmt.Fprintf(out, "exit code: %d\n", m.ExitCode())
}

func formatRow(row []dbm.Register) string {
	cols := make([]string, len(row))
	for i, r := range row {
		switch r.Kind {
		case dbm.KindNull:
			cols[i] = "NULL"
		case dbm.KindInt32:
			cols[i] = fmt.Sprintf("%d", r.Int)
		case dbm.KindString:
			cols[i] = r.Str
		case dbm.KindBinary:
			cols[i] = fmt.Sprintf("%x", r.Bin)
		}
	}
	return strings.Join(cols, "|")
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
