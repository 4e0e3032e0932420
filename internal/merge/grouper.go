package merge

import (
	"fmt"

	"wallet-reconcile-go/internal/models"
)

// Group is every row sharing one CorrelationKey, in input order.
// Rows without a usable key each get a group of their own with Keyed false.
type Group struct {
	Key   models.CorrelationKey
	Keyed bool
	Rows  []*models.RawRow
}

// GroupRows buckets rows by correlation key in order of first appearance.
// A malformed key aborts the whole run.
func GroupRows(venue Venue, rows []*models.RawRow) ([]*Group, error) {
	var groups []*Group
	index := make(map[models.CorrelationKey]*Group)

	for _, row := range rows {
		key, ok, err := models.NewCorrelationKey(row.Owner, row.Fields.Get(venue.TxIdColumn))
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", row.Feed, row.LineNum, err)
		}
		if !ok {
			groups = append(groups, &Group{Rows: []*models.RawRow{row}})
			continue
		}
		if g, found := index[key]; found {
			g.Rows = append(g.Rows, row)
			continue
		}
		g := &Group{Key: key, Keyed: true, Rows: []*models.RawRow{row}}
		index[key] = g
		groups = append(groups, g)
	}
	return groups, nil
}

// Primary returns the first row from the primary transaction feed, or nil
func (g *Group) Primary() *models.RawRow {
	for _, row := range g.Rows {
		if row.Feed == models.FeedTxns {
			return row
		}
	}
	return nil
}

// Live returns the rows that still carry a record
func (g *Group) Live() []*models.RawRow {
	var out []*models.RawRow
	for _, row := range g.Rows {
		if row.Live() {
			out = append(out, row)
		}
	}
	return out
}

// Feeds reports how many rows of each feed the group holds
func (g *Group) Feeds() map[models.Feed]int {
	out := make(map[models.Feed]int)
	for _, row := range g.Rows {
		out[row.Feed]++
	}
	return out
}

// hasTransfers reports whether any token or NFT transfer joined the primary row
func (g *Group) hasTransfers() bool {
	feeds := g.Feeds()
	return feeds[models.FeedTokens] > 0 || feeds[models.FeedNFTs] > 0
}

type snapshot map[*models.RawRow]*models.Record

func (g *Group) snapshot() snapshot {
	s := make(snapshot, len(g.Rows))
	for _, row := range g.Rows {
		s[row] = row.Record.Clone()
	}
	return s
}

func (g *Group) restore(s snapshot) {
	for _, row := range g.Rows {
		row.Record = s[row]
	}
}
