package schedule

// WishSet is the read-only set of hard (teacher, day, session) exclusions.
// The engine enforces wishes by omitting decision variables, never by adding
// negative constraints, and never mutates the set.
type WishSet struct {
	entries map[wishKey]struct{}
}

type wishKey struct {
	code    int64
	day     int
	session int
}

func NewWishSet(rows []RawWishRow) *WishSet {
	entries := make(map[wishKey]struct{}, len(rows))
	for _, row := range rows {
		if row.Day <= 0 || row.Session <= 0 {
			continue
		}
		entries[wishKey{code: row.Code, day: row.Day, session: row.Session}] = struct{}{}
	}
	return &WishSet{entries: entries}
}

func (w *WishSet) Excludes(code int64, day, session int) bool {
	_, ok := w.entries[wishKey{code: code, day: day, session: session}]
	return ok
}

func (w *WishSet) Len() int {
	return len(w.entries)
}
