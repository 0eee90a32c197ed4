package postgres

import (
	"fmt"
	"strings"
)

// updateBuilder assembles a partial UPDATE from whichever fields were
// provided, with positional args only. Handlers never touch SQL text.
type updateBuilder struct {
	sets []string
	args []interface{}
	pos  int
}

func newUpdateBuilder() *updateBuilder {
	return &updateBuilder{pos: 1}
}

func (b *updateBuilder) Set(column string, value interface{}) {
	b.sets = append(b.sets, fmt.Sprintf("%s = $%d", column, b.pos))
	b.args = append(b.args, value)
	b.pos++
}

func (b *updateBuilder) Empty() bool {
	return len(b.sets) == 0
}

// Build returns the statement and args; the row id is appended last.
func (b *updateBuilder) Build(table, returning string, id string) (string, []interface{}) {
	query := fmt.Sprintf(
		"UPDATE %s SET %s, updated_at = now() WHERE id = $%d RETURNING %s",
		table,
		strings.Join(b.sets, ", "),
		b.pos,
		returning,
	)

	args := append(b.args, id)

	return query, args
}
