package main

import (
	"fmt"
	"strconv"
	"strings"

	"minidb/dbm"
)

// opcodeNames maps the assembly mnemonic a line starts with to its
// dbm.Opcode, the same names dbm.Opcode.String() produces.
var opcodeNames = map[string]dbm.Opcode{
	"OpenRead":    dbm.OpenRead,
	"OpenWrite":   dbm.OpenWrite,
	"Close":       dbm.Close,
	"Rewind":      dbm.Rewind,
	"Next":        dbm.Next,
	"Prev":        dbm.Prev,
	"Seek":        dbm.Seek,
	"SeekGt":      dbm.SeekGt,
	"SeekGe":      dbm.SeekGe,
	"SeekLt":      dbm.SeekLt,
	"SeekLe":      dbm.SeekLe,
	"Integer":     dbm.Integer,
	"String":      dbm.String,
	"Null":        dbm.Null,
	"Copy":        dbm.Copy,
	"SCopy":       dbm.SCopy,
	"Eq":          dbm.Eq,
	"Ne":          dbm.Ne,
	"Lt":          dbm.Lt,
	"Le":          dbm.Le,
	"Gt":          dbm.Gt,
	"Ge":          dbm.Ge,
	"Column":      dbm.Column,
	"Key":         dbm.Key,
	"ResultRow":   dbm.ResultRow,
	"MakeRecord":  dbm.MakeRecord,
	"Insert":      dbm.Insert,
	"IdxGt":       dbm.IdxGt,
	"IdxGe":       dbm.IdxGe,
	"IdxLt":       dbm.IdxLt,
	"IdxLe":       dbm.IdxLe,
	"IdxPKey":     dbm.IdxPKey,
	"IdxInsert":   dbm.IdxInsert,
	"CreateTable": dbm.CreateTable,
	"CreateIndex": dbm.CreateIndex,
	"Halt":        dbm.Halt,
}

// stringOperandAt lists the opcodes that take their last operand as a
// literal string (P4) instead of an integer, mapped to how many integer
// operands come before it; those are still P1/P2/P3 in order.
var stringOperandAt = map[dbm.Opcode]int{
	dbm.String: 2, // String <len> <reg> <literal...>
}

// parseProgram assembles one DBM instruction per non-empty, non-comment
// line. Each line is "Opcode p1 [p2 [p3 [p4...]]]"; trailing words beyond
// the opcode's integer operand count are joined with spaces into P4 (used
// by String's string literal).
func parseProgram(src string) ([]dbm.Instruction, error) {
	var program []dbm.Instruction
	for lineNo, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		in, err := parseInstruction(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo+1, err)
		}
		program = append(program, in)
	}
	return program, nil
}

func parseInstruction(line string) (dbm.Instruction, error) {
	fields := strings.Fields(line)
	op, ok := opcodeNames[fields[0]]
	if !ok {
		return dbm.Instruction{}, fmt.Errorf("unknown opcode %q", fields[0])
	}

	intOperands := 3
	if n, ok := stringOperandAt[op]; ok {
		intOperands = n
	}

	var p [3]int32
	rest := fields[1:]
	for i := 0; i < intOperands && i < len(rest); i++ {
		v, err := strconv.ParseInt(rest[i], 10, 32)
		if err != nil {
			return dbm.Instruction{}, fmt.Errorf("operand %d (%q): %w", i+1, rest[i], err)
		}
		p[i] = int32(v)
	}

	var p4 string
	if len(rest) > intOperands {
		p4 = strings.Join(rest[intOperands:], " ")
	}

	return dbm.Instruction{Opcode: op, P1: p[0], P2: p[1], P3: p[2], P4: p4}, nil
}
