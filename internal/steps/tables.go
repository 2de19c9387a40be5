package steps

import (
	"strings"

	"github.com/cucumber/godog"
)

// Pair is one row of a two-column data table.
type Pair struct {
	Key   string
	Value string
}

var headerKeys = map[string]bool{"field": true, "key": true, "name": true, "filter": true, "filter_type": true, "type": true}

// pairs reads a two-column table in order. A first row shaped like a header
// ("field | value") is skipped; any other first row is data.
func pairs(t *godog.Table) []Pair {
	if t == nil {
		return nil
	}
	out := make([]Pair, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row.Cells) < 2 {
			continue
		}
		k := strings.TrimSpace(row.Cells[0].Value)
		v := strings.TrimSpace(row.Cells[1].Value)
		if i == 0 && headerKeys[strings.ToLower(k)] && strings.EqualFold(v, "value") {
			continue
		}
		out = append(out, Pair{Key: k, Value: v})
	}
	return out
}

// records reads a table whose first row names the columns.
func records(t *godog.Table) []map[string]string {
	if t == nil || len(t.Rows) < 2 {
		return nil
	}
	head := make([]string, len(t.Rows[0].Cells))
	for i, c := range t.Rows[0].Cells {
		head[i] = strings.ToLower(strings.TrimSpace(c.Value))
	}
	out := make([]map[string]string, 0, len(t.Rows)-1)
	for _, row := range t.Rows[1:] {
		rec := make(map[string]string, len(head))
		for i, c := range row.Cells {
			if i < len(head) {
				rec[head[i]] = strings.TrimSpace(c.Value)
			}
		}
		out = append(out, rec)
	}
	return out
}

// resolvePairs expands placeholders in every value.
func (w *World) resolvePairs(t *godog.Table) ([]Pair, error) {
	ps := pairs(t)
	for i := range ps {
		v, err := w.resolve(ps[i].Value)
		if err != nil {
			return nil, err
		}
		ps[i].Value = v
	}
	return ps, nil
}

// resolveRecords expands placeholders in every cell of a headed table.
func (w *World) resolveRecords(t *godog.Table) ([]map[string]string, error) {
	recs := records(t)
	if w.vars == nil {
		return recs, nil
	}
	for i, rec := range recs {
		rv, err := w.vars.ResolveVars(rec)
		if err != nil {
			return nil, err
		}
		recs[i] = rv
	}
	return recs, nil
}
