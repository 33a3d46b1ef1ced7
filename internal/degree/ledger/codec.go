package ledger

import (
	"encoding/json"

	"github.com/yungbote/degreeplan-backend/internal/degree/reqid"
)

type wireEntry struct {
	ID  reqid.ID `json:"id"`
	Key string   `json:"key"`
	Entry
}

// MarshalJSON writes the ledger as an ordered list so the order survives a
// round trip. Key is the canonical string form, kept for readers.
func (l *Ledger) MarshalJSON() ([]byte, error) {
	rows := make([]wireEntry, 0, l.Len())
	for _, id := range l.Keys() {
		e, _ := l.Get(id)
		rows = append(rows, wireEntry{ID: id, Key: id.String(), Entry: e})
	}
	return json.Marshal(rows)
}

func (l *Ledger) UnmarshalJSON(data []byte) error {
	var rows []wireEntry
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	fresh := New()
	for _, r := range rows {
		if r.Courses == nil {
			r.Courses = []string{}
		}
		fresh.Put(r.ID, r.Entry)
	}
	*l = *fresh
	return nil
}
