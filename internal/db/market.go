package db

import (
	"fmt"
	"time"

	"market-sim/internal/logger"
	"market-sim/internal/market"
)

// parseStoredTime parses a stored RFC3339 date. Unparseable values are
// logged and read as the zero time.
func parseStoredTime(table, value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		logger.Warn("DB", fmt.Sprintf("%s: bad date %q: %v", table, value, err))
		return time.Time{}
	}
	return t
}

// AppendPrice stores one price entry and trims the item's rows to the
// newest keep entries. keep <= 0 disables trimming.
func (d *DB) AppendPrice(itemID string, e market.PriceEntry, keep int) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return fmt.Errorf("append price: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"INSERT INTO price_history (item_id, date, price, volume) VALUES (?,?,?,?)",
		itemID, e.Date.UTC().Format(time.RFC3339Nano), e.Price, e.Volume,
	); err != nil {
		return fmt.Errorf("append price: %w", err)
	}

	if keep > 0 {
		if _, err := tx.Exec(`
			DELETE FROM price_history
			WHERE item_id = ? AND id NOT IN (
				SELECT id FROM price_history WHERE item_id = ? ORDER BY id DESC LIMIT ?
			)`, itemID, itemID, keep); err != nil {
			return fmt.Errorf("trim price history: %w", err)
		}
	}
	return tx.Commit()
}

// LoadPriceHistory returns an item's stored entries, oldest first.
func (d *DB) LoadPriceHistory(itemID string) ([]market.PriceEntry, error) {
	rows, err := d.sql.Query(
		"SELECT date, price, volume FROM price_history WHERE item_id=? ORDER BY id",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("load price history: %w", err)
	}
	defer rows.Close()

	var entries []market.PriceEntry
	for rows.Next() {
		var e market.PriceEntry
		var date string
		if err := rows.Scan(&date, &e.Price, &e.Volume); err != nil {
			logger.Warn("DB", fmt.Sprintf("price_history %s: skip row: %v", itemID, err))
			continue
		}
		e.Date = parseStoredTime("price_history", date)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PricedItems returns the ids of all items with stored history.
func (d *DB) PricedItems() ([]string, error) {
	rows, err := d.sql.Query("SELECT DISTINCT item_id FROM price_history ORDER BY item_id")
	if err != nil {
		return nil, fmt.Errorf("list priced items: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			logger.Warn("DB", fmt.Sprintf("price_history: skip item: %v", err))
			continue
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveTrends upserts the given category states.
func (d *DB) SaveTrends(states []market.CategoryState) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return fmt.Errorf("save trends: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO trend_snapshot (category, trend, demand, volume, prediction, updated_at)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("save trends: %w", err)
	}
	defer stmt.Close()

	for _, s := range states {
		if _, err := stmt.Exec(
			s.Category, s.TrendMultiplier, s.DemandMultiplier, s.Volume,
			string(s.Prediction), s.LastUpdate.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("save trend %s: %w", s.Category, err)
		}
	}
	return tx.Commit()
}

// LoadTrends returns every saved category state, ordered by category.
func (d *DB) LoadTrends() ([]market.CategoryState, error) {
	rows, err := d.sql.Query(
		"SELECT category, trend, demand, volume, prediction, updated_at FROM trend_snapshot ORDER BY category",
	)
	if err != nil {
		return nil, fmt.Errorf("load trends: %w", err)
	}
	defer rows.Close()

	var states []market.CategoryState
	for rows.Next() {
		var s market.CategoryState
		var prediction, updatedAt string
		if err := rows.Scan(&s.Category, &s.TrendMultiplier, &s.DemandMultiplier, &s.Volume, &prediction, &updatedAt); err != nil {
			logger.Warn("DB", fmt.Sprintf("trend_snapshot: skip row: %v", err))
			continue
		}
		s.Prediction = market.Prediction(prediction)
		s.LastUpdate = parseStoredTime("trend_snapshot", updatedAt)
		states = append(states, s)
	}
	return states, rows.Err()
}

// LogEvent records an applied seasonal event.
func (d *DB) LogEvent(info market.EventInfo) error {
	_, err := d.sql.Exec(
		"INSERT INTO event_log (name, multiplier, applied_at, reverts_at) VALUES (?,?,?,?)",
		info.Name, info.Multiplier,
		info.AppliedAt.UTC().Format(time.RFC3339Nano), info.RevertsAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// RecentEvents returns up to limit logged events, newest first.
func (d *DB) RecentEvents(limit int) ([]market.EventInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	return d.queryEvents(
		"SELECT id, name, multiplier, applied_at, reverts_at FROM event_log ORDER BY id DESC LIMIT ?",
		limit,
	)
}

// PendingEvents returns logged events whose revert time is after now,
// oldest first.
func (d *DB) PendingEvents(now time.Time) ([]market.EventInfo, error) {
	all, err := d.queryEvents("SELECT id, name, multiplier, applied_at, reverts_at FROM event_log ORDER BY id")
	if err != nil {
		return nil, err
	}
	var out []market.EventInfo
	for _, e := range all {
		if e.RevertsAt.After(now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (d *DB) queryEvents(query string, args ...interface{}) ([]market.EventInfo, error) {
	rows, err := d.sql.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []market.EventInfo
	for rows.Next() {
		var e market.EventInfo
		var id int64
		var applied, reverts string
		if err := rows.Scan(&id, &e.Name, &e.Multiplier, &applied, &reverts); err != nil {
			logger.Warn("DB", fmt.Sprintf("event_log: skip row: %v", err))
			continue
		}
		e.ID = uint64(id)
		e.AppliedAt = parseStoredTime("event_log", applied)
		e.RevertsAt = parseStoredTime("event_log", reverts)
		out = append(out, e)
	}
	return out, rows.Err()
}
