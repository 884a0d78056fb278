package render

import (
	"fmt"
	"strings"

	"github.com/sqlxlate/sqlxlate/internal/schema/model"
)

// postActionOrder fixes the grouping order of the post-transformation
// actions section: PostgreSQL's generated column must exist before the GIN
// index that indexes it, and SQLite's FTS5 shadow table must exist before
// it is populated and before the sync triggers reference it.
var postActionOrder = []string{
	"postgresql_generated_column",
	"postgresql_gin_index",
	"sqlite_fts_table",
	"sqlite_fts_populate",
	"sqlite_fts_triggers",
}

// renderPostActions emits the deferred, target-specific statements recorded
// during transform, grouped by type in postActionOrder and preserving the
// within-type order they were recorded in.
func renderPostActions(buf *strings.Builder, actions []model.PostAction) {
	if len(actions) == 0 {
		return
	}
	fmt.Fprintln(buf, "-- Post-transformation actions")

	byType := make(map[string][]model.PostAction, len(postActionOrder))
	var unknown []model.PostAction
	known := make(map[string]bool, len(postActionOrder))
	for _, t := range postActionOrder {
		known[t] = true
	}
	for _, a := range actions {
		if known[a.Type] {
			byType[a.Type] = append(byType[a.Type], a)
		} else {
			unknown = append(unknown, a)
		}
	}

	for _, t := range postActionOrder {
		for _, a := range byType[t] {
			writePostAction(buf, a)
		}
	}
	for _, a := range unknown {
		writePostAction(buf, a)
	}
}

func writePostAction(buf *strings.Builder, a model.PostAction) {
	if a.Description != "" {
		fmt.Fprintf(buf, "-- %s\n", a.Description)
	}
	fmt.Fprintln(buf, a.SQL)
}
